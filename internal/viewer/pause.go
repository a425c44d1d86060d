package viewer

import (
	"sync"

	"github.com/loupedev/loupe/internal/event"
)

// pauser redirects incoming events into a side buffer while paused. The lock
// covers only the state flip and buffer swap; flushing the drained buffer
// into the collection is the caller's job and happens outside the lock on the
// UI goroutine.
type pauser struct {
	mu      sync.Mutex
	paused  bool
	enabled bool
	buffer  []*event.Event
}

func newPauser() *pauser {
	return &pauser{enabled: true}
}

// Paused reports the current state.
func (p *pauser) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Pause enters the paused state and reports whether it is now active. Pausing
// is refused while the feature is disabled.
func (p *pauser) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return false
	}
	p.paused = true
	return true
}

// Resume leaves the paused state and returns the buffered events in arrival
// order. The buffer is swapped out atomically; the caller bulk-appends the
// result and applies one trim pass.
func (p *pauser) Resume() []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	drained := p.buffer
	p.buffer = nil
	return drained
}

// SetEnabled toggles whether pausing is allowed. Disabling while paused
// forces a resume and returns the flush, exactly as Resume would.
func (p *pauser) SetEnabled(enabled bool) []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	if enabled || !p.paused {
		return nil
	}
	p.paused = false
	drained := p.buffer
	p.buffer = nil
	return drained
}

// Intercept buffers the event if paused, reporting whether it was consumed.
// The buffer itself is never trimmed; trimming happens on flush.
func (p *pauser) Intercept(e *event.Event) bool {
	if e == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return false
	}
	p.buffer = append(p.buffer, e)
	return true
}

// Buffered returns how many events are waiting for resume.
func (p *pauser) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}
