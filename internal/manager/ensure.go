package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Acquire returns the loaded model, loading it first when absent, and marks
// it used now. Concurrent callers against an unloaded model queue on the
// lifecycle lock and all observe the single load's result.
//
// The handle stays valid until release is called, even if the model is
// evicted in the meantime. release is safe to call more than once.
//
// ctx bounds only the wait for the lock. Once a load starts it runs to
// completion even if ctx is cancelled.
func (m *Manager) Acquire(ctx context.Context) (mdl Model, release func(), err error) {
	if err := m.lock(ctx); err != nil {
		return nil, nil, err
	}
	defer m.unlock()

	inst := m.cur
	if inst == nil {
		m.log.Info().Msg("model is not loaded, reloading for incoming request")
		inst, err = m.load(context.WithoutCancel(ctx), "request")
		if err != nil {
			return nil, nil, err
		}
	}
	m.mu.Lock()
	m.lastUsed = m.clock()
	inst.leases++
	m.mu.Unlock()

	var once sync.Once
	return inst.model, func() { once.Do(func() { m.unlease(inst) }) }, nil
}

// unlease drops one hold on inst and tears it down if it was already
// evicted and this was the last hold.
func (m *Manager) unlease(inst *instance) {
	m.mu.Lock()
	inst.leases--
	last := inst.retired && inst.leases == 0
	m.mu.Unlock()
	if last {
		m.log.Debug().Str("instance_id", inst.id).Msg("last request released evicted model")
		m.teardown(inst)
	}
}

// load runs the loader and commits the handle. Caller must hold slot.
func (m *Manager) load(ctx context.Context, trigger string) (*instance, error) {
	startTs := time.Now()
	m.mu.Lock()
	m.state = StateLoading
	m.mu.Unlock()
	m.log.Info().Str("trigger", trigger).Msg("loading model")
	m.publisher.Publish(Event{Name: "load_start", Fields: map[string]any{"trigger": trigger}})

	var (
		mdl Model
		err error
	)
	if m.loader == nil {
		err = errors.New("no model loader configured")
	} else {
		mdl, err = m.loader(ctx)
	}
	if err == nil && mdl == nil {
		err = errors.New("loader returned no model")
	}
	if err != nil {
		m.mu.Lock()
		m.state = StateError
		m.lastErr = err.Error()
		m.failures++
		m.mu.Unlock()
		m.log.Error().Err(err).Str("trigger", trigger).Msg("model load failed")
		m.publisher.Publish(Event{Name: "load_error", Fields: map[string]any{"error": err.Error(), "trigger": trigger}})
		return nil, &LoadError{Cause: err}
	}

	inst := &instance{model: mdl, id: uuid.NewString()}
	dur := time.Since(startTs)
	m.mu.Lock()
	m.cur = inst
	m.state = StateReady
	m.lastErr = ""
	m.loadedAt = m.clock()
	m.loads++
	m.mu.Unlock()
	m.log.Info().Str("instance_id", inst.id).Dur("dur", dur).Msg("model loaded")
	m.publisher.Publish(Event{Name: "load_done", InstanceID: inst.id, Fields: map[string]any{"dur_ms": dur.Milliseconds(), "trigger": trigger}})
	return inst, nil
}
