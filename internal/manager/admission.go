package manager

// tryEnter claims the single in-flight slot without blocking. A false return
// leaves the slot untouched.
func (m *Manager) tryEnter() bool {
	select {
	case m.genCh <- struct{}{}:
		generationBusy.Set(1)
		return true
	default:
		return false
	}
}

// leave releases the in-flight slot. It is safe to call when the slot is
// already free.
func (m *Manager) leave() {
	select {
	case <-m.genCh:
	default:
	}
	generationBusy.Set(0)
}
