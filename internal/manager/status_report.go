package manager

import (
	"time"

	"embedd/pkg/types"
)

// Snapshot returns a read-only view of the manager state. It never touches
// lastUsed and never waits for an in-flight load.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		State:             m.state,
		Loaded:            m.cur != nil,
		LoadedAt:          m.loadedAt,
		LastUsed:          m.lastUsed,
		LastError:         m.lastErr,
		LoadsTotal:        m.loads,
		LoadFailuresTotal: m.failures,
		EvictionsTotal:    m.evictions,
		IdleTimeout:       m.idleTimeout,
		CheckInterval:     m.checkInterval,
	}
	if m.cur != nil {
		s.InstanceID = m.cur.id
		s.InFlight = m.cur.leases
	}
	if !m.lastUsed.IsZero() {
		s.IdleFor = m.clock().Sub(m.lastUsed)
	}
	return s
}

// Status builds the /status response.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	resp := types.StatusResponse{
		State:              string(s.State),
		ModelLoaded:        s.Loaded,
		InstanceID:         s.InstanceID,
		LastError:          s.LastError,
		IdleSeconds:        int64(s.IdleFor / time.Second),
		IdleTimeoutSeconds: int64(s.IdleTimeout / time.Second),
		CheckIntervalSecs:  int64(s.CheckInterval / time.Second),
		LoadsTotal:         s.LoadsTotal,
		LoadFailuresTotal:  s.LoadFailuresTotal,
		EvictionsTotal:     s.EvictionsTotal,
		ServerTimeUnix:     m.clock().Unix(),
	}
	if !s.LoadedAt.IsZero() {
		resp.LoadedAtUnix = s.LoadedAt.Unix()
	}
	if !s.LastUsed.IsZero() {
		resp.LastUsedUnix = s.LastUsed.Unix()
	}
	if s.IdleTimeout > 0 && s.Loaded {
		left := s.IdleTimeout - s.IdleFor
		if left < 0 {
			left = 0
		}
		resp.UnloadInSeconds = int64(left / time.Second)
	}
	return resp
}
