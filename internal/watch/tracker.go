package watch

import "sync"

// Tracker remembers the last coherence observed per session
type Tracker struct {
	mu   sync.Mutex
	last map[string]float64
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]float64)}
}

// Observe records coherence for id and returns the change since the
// previous observation. ok is false on the first observation.
func (t *Tracker) Observe(id string, coherence float64) (delta float64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.last[id]
	t.last[id] = coherence
	if !ok {
		return 0, false
	}
	return coherence - prev, true
}
