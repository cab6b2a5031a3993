package manager

import (
	"strconv"
	"strings"

	"koboldd/pkg/types"
)

// Sampling defaults used when the request omits a field.
const (
	defaultTemperature = 0.8
	defaultTopK        = 40
	defaultTopP        = 0.9
	defaultTFS         = 1.0
	defaultTypical     = 1.0

	// minTopP replaces non-positive top_p values; runners reject them.
	minTopP = 0.001
)

// Request is a generation request with every default resolved.
type Request struct {
	Prompt           string
	MaxLength        int
	MaxContextLength int
	Temperature      float64
	RepPen           float64
	RepPenRange      int
	TopK             int
	TopP             float64
	TFS              float64
	Typical          float64
}

// Invocation is a fully built runner command.
type Invocation struct {
	// Argv is the complete command: binary first, prompt flag last.
	Argv []string
	// Loggable is the sampling argument list without binary, model, threads
	// or prompt.
	Loggable []string
	// Prompt is the normalized prompt passed to the runner.
	Prompt string
}

// normalizeNewlines converts CRLF line endings to LF.
func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func resolveRequest(in types.GenerateRequest, s Settings, v variant) Request {
	r := Request{
		Prompt:           normalizeNewlines(in.Prompt),
		MaxLength:        intOr(in.MaxLength, s.MaxLength),
		MaxContextLength: intOr(in.MaxContextLength, s.MaxContextLength),
		Temperature:      floatOr(in.Temperature, defaultTemperature),
		RepPen:           floatOr(in.RepPen, v.DefaultRepPen),
		RepPenRange:      intOr(in.RepPenRange, v.DefaultRepPenRange),
		TopK:             intOr(in.TopK, defaultTopK),
		TopP:             floatOr(in.TopP, defaultTopP),
		TFS:              floatOr(in.TFS, defaultTFS),
		Typical:          floatOr(in.Typical, defaultTypical),
	}
	if r.TopP <= 0 {
		r.TopP = minTopP
	}
	return r
}

// buildArguments returns the runner arguments for r and the loggable copy
// taken before the prompt is appended.
func buildArguments(r Request, s Settings, v variant) (args, loggable []string) {
	add := func(flag, value string) {
		if flag != "" {
			args = append(args, flag, value)
		}
	}
	add(v.NPredict, strconv.Itoa(r.MaxLength))
	add(v.CtxSize, strconv.Itoa(r.MaxContextLength))
	add(v.Temp, formatFloat(r.Temperature))
	add(v.RepeatPenalty, formatFloat(r.RepPen))
	add(v.TopK, strconv.Itoa(r.TopK))
	add(v.TopP, formatFloat(r.TopP))
	add(v.TFS, formatFloat(r.TFS))
	add(v.Typical, formatFloat(r.Typical))
	add(v.RepeatLastN, strconv.Itoa(r.RepPenRange))
	if s.GPULayers > 0 {
		add(v.GPULayers, strconv.Itoa(s.GPULayers))
	}
	if s.IgnoreEOS && v.IgnoreEOS != "" {
		args = append(args, v.IgnoreEOS)
	}
	args = append(args, s.ExtraArgs...)

	loggable = append([]string(nil), args...)
	args = append(args, v.Prompt, r.Prompt)
	return args, loggable
}

func buildInvocation(in types.GenerateRequest, s Settings, v variant) Invocation {
	r := resolveRequest(in, s, v)
	args, loggable := buildArguments(r, s, v)
	argv := make([]string, 0, len(args)+5)
	argv = append(argv, s.BinaryPath, v.Model, s.ModelPath, v.Threads, strconv.Itoa(s.Threads))
	argv = append(argv, args...)
	return Invocation{Argv: argv, Loggable: loggable, Prompt: r.Prompt}
}

// Plan builds the invocation Generate would run for req, without running it.
func (m *Manager) Plan(req types.GenerateRequest) Invocation {
	return buildInvocation(req, m.settings.GenerationSettings(), m.variant)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
