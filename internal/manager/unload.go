package manager

// Close releases the model at shutdown. Call it after Run has returned so no
// sweep races with teardown. A handle still leased is closed when its last
// holder releases it. Safe to call more than once.
func (m *Manager) Close() error {
	m.slot <- struct{}{}
	defer m.unlock()
	if m.cur != nil {
		m.release("shutdown", m.clock().Sub(m.lastUsed))
	}
	m.log.Info().Msg("manager closed")
	return nil
}
