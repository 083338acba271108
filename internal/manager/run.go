package manager

import (
	"context"
	"time"
)

// Start loads the model eagerly so the cold-start cost is paid before the
// first request. On failure the manager stays unloaded and the error is
// returned; later Acquire calls retry.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.lock(ctx); err != nil {
		return err
	}
	defer m.unlock()
	if m.cur == nil {
		if _, err := m.load(ctx, "startup"); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.lastUsed = m.clock()
	m.mu.Unlock()
	return nil
}

// Run sweeps for idle eviction every check interval until ctx is cancelled.
// With eviction disabled it only waits for ctx. It always returns nil once
// ctx is done, so callers can await it during shutdown.
func (m *Manager) Run(ctx context.Context) error {
	if m.idleTimeout <= 0 {
		m.log.Info().Msg("model auto-unload disabled")
		<-ctx.Done()
		return nil
	}
	m.log.Info().
		Dur("idle_timeout", m.idleTimeout).
		Dur("check_interval", m.checkInterval).
		Msg("model auto-unload enabled")

	t := time.NewTicker(m.checkInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("model sweeper stopped")
			return nil
		case <-t.C:
			if _, err := m.sweep(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn().Err(err).Msg("sweep skipped")
			}
		}
	}
}
