package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"koboldd/pkg/types"
)

// Generate runs one generation for req and returns the cleaned output.
//
// It fails fast with a busy error if another generation is in flight. On
// every other path, including runner faults and panics, the in-flight slot is
// released before Generate returns.
func (m *Manager) Generate(ctx context.Context, req types.GenerateRequest) (text string, err error) {
	if !m.tryEnter() {
		m.rejections.Add(1)
		generationsTotal.WithLabelValues(outcomeBusy).Inc()
		m.publisher.Publish(Event{Name: "generate_rejected"})
		m.log.Warn().Msg("generate rejected: busy")
		return "", busyError{}
	}
	defer m.leave()

	id := uuid.NewString()
	start := time.Now()
	log := m.log.With().Str("generation_id", id).Logger()
	defer func() {
		if r := recover(); r != nil {
			err = generationFailedError{exitCode: -1, cause: fmt.Errorf("panic: %v", r)}
		}
		generationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			m.failures.Add(1)
			m.setLastError(err)
			outcome := outcomeFailed
			if IsTimeout(err) {
				outcome = outcomeTimeout
			}
			generationsTotal.WithLabelValues(outcome).Inc()
			m.publisher.Publish(Event{ID: id, Name: "generate_failed", Fields: map[string]any{"error": err.Error()}})
			log.Error().Err(err).Dur("dur", time.Since(start)).Msg("generate failed")
			return
		}
		m.generations.Add(1)
		m.setLastError(nil)
		generationsTotal.WithLabelValues(outcomeOK).Inc()
		m.publisher.Publish(Event{ID: id, Name: "generate_done", Fields: map[string]any{"chars": len(text)}})
	}()

	s := m.settings.GenerationSettings()
	inv := buildInvocation(req, s, m.variant)
	log.Info().
		Str("prompt", m.echo(s, inv.Prompt)).
		Strs("args", inv.Loggable).
		Str("command", CommandLine(inv.Argv[:len(inv.Argv)-2])).
		Msg("generate start")
	m.publisher.Publish(Event{ID: id, Name: "generate_start", Fields: map[string]any{"args": inv.Loggable}})

	runCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	res, err := m.runner.Run(runCtx, inv.Argv)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && m.timeout > 0 && ctx.Err() == nil {
			return "", timeoutError{after: m.timeout}
		}
		return "", generationFailedError{exitCode: res.ExitCode, stderr: tail(res.Stderr, stderrTailBytes), cause: err}
	}
	m.publisher.Publish(Event{ID: id, Name: "generate_exit", Fields: map[string]any{"pid": res.PID, "exit_code": res.ExitCode}})
	if res.ExitCode != 0 {
		return "", generationFailedError{exitCode: res.ExitCode, stderr: tail(res.Stderr, stderrTailBytes)}
	}

	text = cleanOutput(res.Stdout, inv.Prompt)
	log.Info().
		Str("output", m.echo(s, text)).
		Int("pid", res.PID).
		Dur("dur", res.Duration).
		Msg("generate end")
	return text, nil
}

// echo renders prompt or output text for logs.
func (m *Manager) echo(s Settings, text string) string {
	if s.VerboseEcho {
		return strconv.Quote(text)
	}
	return text
}
