package manager

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultCheckInterval = 60 * time.Second
	DefaultIdleTimeout   = 3600 * time.Second
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Loader builds the model; required.
	Loader Loader
	// IdleTimeout after which Sweep evicts the model. Zero disables eviction;
	// use DefaultIdleTimeout for the standard hour.
	IdleTimeout time.Duration
	// CheckInterval between sweeps. Defaults to 60s.
	CheckInterval time.Duration
	// Reclaim is invoked after a handle is released, to hand device memory
	// back. Optional; errors are logged and ignored.
	Reclaim func() error
	// Publisher receives lifecycle events. Defaults to a no-op.
	Publisher EventPublisher
	// Logger defaults to zerolog.Nop().
	Logger *zerolog.Logger
	// Clock is used for idle accounting. Defaults to time.Now.
	Clock func() time.Time
}

// New constructs a Manager from cfg. No model is loaded until Start or the
// first Acquire.
func New(cfg Config) *Manager {
	m := &Manager{
		loader:      cfg.Loader,
		idleTimeout: cfg.IdleTimeout,
		reclaim:     cfg.Reclaim,
		publisher:   cfg.Publisher,
		clock:       cfg.Clock,
		slot:        make(chan struct{}, 1),
		state:       StateUnloaded,
	}
	if m.idleTimeout < 0 {
		m.idleTimeout = 0
	}
	if cfg.CheckInterval <= 0 {
		m.checkInterval = defaultCheckInterval
	} else {
		m.checkInterval = cfg.CheckInterval
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	} else {
		m.log = zerolog.Nop()
	}
	m.log = m.log.With().Str("component", "manager").Logger()
	return m
}
