package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"koboldd/pkg/types"
)

type Manager struct {
	settings  SettingsSource
	variant   variant
	timeout   time.Duration
	runner    Runner
	publisher EventPublisher
	log       zerolog.Logger

	// genCh holds a token while a generation is in flight (size 1).
	genCh chan struct{}

	mu        sync.RWMutex
	lastErr   string
	startTime time.Time

	generations atomic.Uint64
	failures    atomic.Uint64
	rejections  atomic.Uint64
}

// New builds a Manager with default runner and no timeout.
func New(settings SettingsSource, variantName string, logger zerolog.Logger) (*Manager, error) {
	return NewWithConfig(ManagerConfig{Settings: settings, Variant: variantName, Logger: logger})
}

// Variant returns the runner flag table name in use.
func (m *Manager) Variant() string { return m.variant.Name }

// Busy reports whether a generation is currently in flight.
func (m *Manager) Busy() bool { return len(m.genCh) > 0 }

// Ready reports whether the runner binary and model are available.
func (m *Manager) Ready() bool { return m.SanityCheck().OK() }

// Status builds the /status payload. Model is filled in by the caller.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	lastErr := m.lastErr
	m.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		Busy:             m.Busy(),
		Variant:          m.variant.Name,
		LastError:        lastErr,
		GenerationsTotal: m.generations.Load(),
		FailuresTotal:    m.failures.Load(),
		RejectionsTotal:  m.rejections.Load(),
		UptimeSeconds:    int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:   now.Unix(),
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.lastErr = ""
		return
	}
	m.lastErr = err.Error()
}
