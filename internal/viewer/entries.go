package viewer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/loupedev/loupe/internal/event"
)

// Action classifies a change to an Entries collection.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
	ActionReset
)

// Change describes one structural mutation: what happened, to which events,
// starting at which index. Consumers use it to patch their rendering
// incrementally instead of re-rendering everything; a Reset means start over.
type Change struct {
	Action Action
	Items  []*event.Event
	Index  int
}

// Entries is the ordered, deduplicated collection of visible events backing
// one viewer. All methods are safe for concurrent use; uniqueness is enforced
// by event identity, so re-adding a present event is rejected rather than
// duplicated. Change notifications fire outside the internal lock, in
// mutation order.
type Entries struct {
	mu     sync.Mutex
	items  []*event.Event
	ids    map[uuid.UUID]struct{}
	notify func(Change)
}

// NewEntries returns an empty collection.
func NewEntries() *Entries {
	return &Entries{ids: make(map[uuid.UUID]struct{})}
}

// OnChange registers the single change callback. Pass nil to detach.
func (c *Entries) OnChange(fn func(Change)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

func (c *Entries) emit(fn func(Change), ch Change) {
	if fn != nil {
		fn(ch)
	}
}

// Add appends the event and reports whether it was newly added. A nil event
// or an identity already present leaves the collection unchanged.
func (c *Entries) Add(e *event.Event) bool {
	if e == nil {
		return false
	}
	c.mu.Lock()
	if _, dup := c.ids[e.ID]; dup {
		c.mu.Unlock()
		return false
	}
	c.ids[e.ID] = struct{}{}
	c.items = append(c.items, e)
	idx := len(c.items) - 1
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionAdd, Items: []*event.Event{e}, Index: idx})
	return true
}

// AddRange appends every event not already present, in the given order, and
// returns how many were added. One notification covers the whole batch.
func (c *Entries) AddRange(events []*event.Event) int {
	c.mu.Lock()
	added := make([]*event.Event, 0, len(events))
	start := len(c.items)
	for _, e := range events {
		if e == nil {
			continue
		}
		if _, dup := c.ids[e.ID]; dup {
			continue
		}
		c.ids[e.ID] = struct{}{}
		c.items = append(c.items, e)
		added = append(added, e)
	}
	fn := c.notify
	c.mu.Unlock()

	if len(added) == 0 {
		return 0
	}
	c.emit(fn, Change{Action: ActionAdd, Items: added, Index: start})
	return len(added)
}

// Insert places the event at index i. Unlike Add it treats a duplicate
// identity as a caller error, since positional inserts expect to succeed.
func (c *Entries) Insert(i int, e *event.Event) error {
	if e == nil {
		return fmt.Errorf("insert nil event")
	}
	c.mu.Lock()
	if i < 0 || i > len(c.items) {
		c.mu.Unlock()
		return fmt.Errorf("insert index %d out of range [0,%d]", i, len(c.items))
	}
	if _, dup := c.ids[e.ID]; dup {
		c.mu.Unlock()
		return fmt.Errorf("event %s already present", e.ID)
	}
	c.ids[e.ID] = struct{}{}
	c.items = append(c.items, nil)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = e
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionAdd, Items: []*event.Event{e}, Index: i})
	return nil
}

// Remove deletes the event by identity and reports whether it was present.
func (c *Entries) Remove(e *event.Event) bool {
	if e == nil {
		return false
	}
	c.mu.Lock()
	idx := c.indexOfLocked(e)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	delete(c.ids, e.ID)
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionRemove, Items: []*event.Event{e}, Index: idx})
	return true
}

// RemoveRange deletes count events starting at start, clamping a count that
// runs past the end. This is the trim-the-oldest-N operation, so it must
// tolerate racing against concurrent shrinking rather than panic.
func (c *Entries) RemoveRange(start, count int) int {
	if start < 0 || count <= 0 {
		return 0
	}
	c.mu.Lock()
	if start >= len(c.items) {
		c.mu.Unlock()
		return 0
	}
	if start+count > len(c.items) {
		count = len(c.items) - start
	}
	removed := append([]*event.Event(nil), c.items[start:start+count]...)
	for _, e := range removed {
		delete(c.ids, e.ID)
	}
	c.items = append(c.items[:start], c.items[start+count:]...)
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionRemove, Items: removed, Index: start})
	return count
}

// Clear empties the collection.
func (c *Entries) Clear() {
	c.mu.Lock()
	c.items = nil
	c.ids = make(map[uuid.UUID]struct{})
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionReset})
}

// Replace swaps the whole contents in one operation, deduplicating the input
// by identity. Used by the backlog re-scan to avoid a storm of incremental
// notifications.
func (c *Entries) Replace(events []*event.Event) {
	c.mu.Lock()
	c.items = nil
	c.ids = make(map[uuid.UUID]struct{})
	for _, e := range events {
		if e == nil {
			continue
		}
		if _, dup := c.ids[e.ID]; dup {
			continue
		}
		c.ids[e.ID] = struct{}{}
		c.items = append(c.items, e)
	}
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionReset})
}

// Get returns the event at index i.
func (c *Entries) Get(i int) (*event.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

// Set replaces the event at index i. The incoming identity must not already
// be present elsewhere in the collection.
func (c *Entries) Set(i int, e *event.Event) error {
	if e == nil {
		return fmt.Errorf("set nil event")
	}
	c.mu.Lock()
	if i < 0 || i >= len(c.items) {
		c.mu.Unlock()
		return fmt.Errorf("set index %d out of range [0,%d)", i, len(c.items))
	}
	old := c.items[i]
	if old.ID != e.ID {
		if _, dup := c.ids[e.ID]; dup {
			c.mu.Unlock()
			return fmt.Errorf("event %s already present", e.ID)
		}
		delete(c.ids, old.ID)
		c.ids[e.ID] = struct{}{}
	}
	c.items[i] = e
	fn := c.notify
	c.mu.Unlock()

	c.emit(fn, Change{Action: ActionReplace, Items: []*event.Event{e}, Index: i})
	return nil
}

// Contains reports whether the event's identity is present.
func (c *Entries) Contains(e *event.Event) bool {
	if e == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[e.ID]
	return ok
}

// IndexOf returns the position of the event by identity, or -1.
func (c *Entries) IndexOf(e *event.Event) int {
	if e == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOfLocked(e)
}

func (c *Entries) indexOfLocked(e *event.Event) int {
	if _, ok := c.ids[e.ID]; !ok {
		return -1
	}
	for i, item := range c.items {
		if item.ID == e.ID {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (c *Entries) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot returns a copy of the entries, so iteration is never invalidated
// by concurrent mutation.
func (c *Entries) Snapshot() []*event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil
	}
	dup := make([]*event.Event, len(c.items))
	copy(dup, c.items)
	return dup
}
