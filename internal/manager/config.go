package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultStopGrace = 2 * time.Second
	stderrTailBytes  = 4096
)

// Settings is the per-call view of the server configuration the orchestrator
// reads. It is never mutated by the manager.
type Settings struct {
	BinaryPath       string
	ModelPath        string
	Threads          int
	MaxLength        int
	MaxContextLength int
	GPULayers        int
	IgnoreEOS        bool
	ExtraArgs        []string
	// VerboseEcho logs prompt and output quoted instead of raw.
	VerboseEcho bool
}

// SettingsSource supplies a best-effort snapshot of Settings for each call.
type SettingsSource interface {
	GenerationSettings() Settings
}

// StaticSettings is a SettingsSource that never changes.
type StaticSettings Settings

func (s StaticSettings) GenerationSettings() Settings { return Settings(s) }

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Settings SettingsSource
	// Variant selects the runner flag table (see variants.go).
	Variant string
	// Timeout bounds one runner invocation; zero means no limit.
	Timeout time.Duration
	// StopGrace is how long a canceled runner gets between SIGTERM and SIGKILL.
	StopGrace time.Duration
	Runner    Runner
	Publisher EventPublisher
	Logger    zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	flags, err := lookupVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		settings:  cfg.Settings,
		variant:   flags,
		timeout:   cfg.Timeout,
		runner:    cfg.Runner,
		publisher: cfg.Publisher,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		genCh:     make(chan struct{}, 1),
		startTime: time.Now(),
	}
	if m.settings == nil {
		m.settings = StaticSettings{}
	}
	if m.timeout < 0 {
		m.timeout = 0
	}
	if m.runner == nil {
		grace := cfg.StopGrace
		if grace <= 0 {
			grace = defaultStopGrace
		}
		m.runner = ExecRunner{StopGrace: grace}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	return m, nil
}
