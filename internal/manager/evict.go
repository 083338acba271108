package manager

import (
	"context"
	"io"
	"time"
)

// Sweep evicts the model if it has been idle longer than the idle timeout.
// It reports whether an eviction happened. A zero timeout disables it.
func (m *Manager) Sweep() bool {
	evicted, _ := m.sweep(context.Background())
	return evicted
}

func (m *Manager) sweep(ctx context.Context) (bool, error) {
	if m.idleTimeout <= 0 {
		return false, nil
	}
	if err := m.lock(ctx); err != nil {
		return false, err
	}
	defer m.unlock()
	if m.cur == nil {
		return false, nil
	}
	idle := m.clock().Sub(m.lastUsed)
	if idle <= m.idleTimeout {
		return false, nil
	}
	m.log.Info().Dur("idle", idle.Round(time.Second)).Msg("model idle, unloading")
	m.release("idle", idle)
	return true, nil
}

// Evict releases the model regardless of idle time, e.g. for an operator
// request or because the weights changed on disk. No-op when not loaded.
func (m *Manager) Evict(reason string) bool {
	m.slot <- struct{}{}
	defer m.unlock()
	if m.cur == nil {
		return false
	}
	m.log.Info().Str("reason", reason).Msg("unloading model")
	m.release(reason, m.clock().Sub(m.lastUsed))
	return true
}

// release drops the handle from the manager at once so the next Acquire
// loads a fresh one. Close and the device reclaim step run now if no request
// holds the handle, otherwise when the last holder releases it.
// Caller must hold slot.
func (m *Manager) release(reason string, idle time.Duration) {
	m.mu.Lock()
	inst := m.cur
	m.cur = nil
	inst.retired = true
	held := inst.leases
	if m.state == StateReady {
		m.state = StateUnloaded
	}
	m.evictions++
	m.mu.Unlock()

	if held == 0 {
		m.teardown(inst)
	} else {
		m.log.Info().Str("instance_id", inst.id).Int("in_flight", held).Msg("close deferred until in-flight requests finish")
	}
	m.publisher.Publish(Event{Name: "evict", InstanceID: inst.id, Fields: map[string]any{"reason": reason, "idle_s": int64(idle / time.Second), "in_flight": held}})
	m.log.Info().Str("instance_id", inst.id).Str("reason", reason).Msg("model unloaded")
}

// teardown closes a retired handle and reclaims device memory. Failures of
// either are logged and swallowed: the handle is gone regardless.
func (m *Manager) teardown(inst *instance) {
	if c, ok := inst.model.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.log.Warn().Err(err).Str("instance_id", inst.id).Msg("model close failed")
			m.publisher.Publish(Event{Name: "evict_error", InstanceID: inst.id, Fields: map[string]any{"stage": "close", "error": err.Error()}})
		}
	}
	if m.reclaim != nil {
		if err := m.reclaim(); err != nil {
			m.log.Warn().Err(err).Str("instance_id", inst.id).Msg("device memory reclaim failed")
			m.publisher.Publish(Event{Name: "evict_error", InstanceID: inst.id, Fields: map[string]any{"stage": "reclaim", "error": err.Error()}})
		}
	}
}
