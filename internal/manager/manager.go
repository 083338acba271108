package manager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Manager struct {
	// slot is the lifecycle lock (capacity 1). Holding it is required to
	// read-check-act on model or lastUsed.
	slot chan struct{}

	// mu guards the fields below for readers that do not hold slot.
	// Writers hold both.
	mu        sync.RWMutex
	cur       *instance
	state     State
	lastUsed  time.Time
	loadedAt  time.Time
	lastErr   string
	loads     uint64
	failures  uint64
	evictions uint64

	loader        Loader
	idleTimeout   time.Duration
	checkInterval time.Duration
	reclaim       func() error
	publisher     EventPublisher
	clock         func() time.Time
	log           zerolog.Logger
}

// instance is one committed handle. leases counts the requests still using
// it; a retired instance is closed when the last of them lets go.
// leases and retired are guarded by Manager.mu.
type instance struct {
	model   Model
	id      string
	leases  int
	retired bool
}

// lock takes the lifecycle slot, giving up if ctx ends first.
func (m *Manager) lock(ctx context.Context) error {
	select {
	case m.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) unlock() { <-m.slot }

// Loaded reports whether a model handle is currently held.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur != nil
}

// Ready is false while a load is in flight or after the last load failed.
// An evicted model still counts as ready: the next request reloads it.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != StateLoading && m.state != StateError
}

// IdleTimeout returns the configured eviction threshold (0 = disabled).
func (m *Manager) IdleTimeout() time.Duration { return m.idleTimeout }

// SetEventPublisher replaces the publisher. Not safe to call concurrently
// with lifecycle operations; intended for wiring at startup.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}
