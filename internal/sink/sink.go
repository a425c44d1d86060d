package sink

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/loupedev/loupe/internal/event"
)

// DefaultMaxQueueSize bounds the backlog when no size is configured.
const DefaultMaxQueueSize = 10000

// Subscriber receives every event accepted by the sink. Subscribers run on
// background goroutines and must not assume any particular calling goroutine.
type Subscriber func(e *event.Event)

// Sink is the multi-producer ingestion point for log events. Any goroutine may
// call Write concurrently; producers never wait on subscriber execution, only
// on the enqueue itself. Retention is bounded: once the backlog exceeds the
// configured maximum the oldest events are trimmed away, slightly past the
// overflow so trimming does not run on every subsequent write. Under heavy
// concurrent writes the backlog may briefly overshoot the maximum; that is
// accepted in exchange for a short producer critical section.
type Sink struct {
	mu    sync.Mutex
	queue []*event.Event
	seen  map[uuid.UUID]struct{}

	// count mirrors len(queue) so the overflow check stays cheap; it may lag
	// a few events behind under contention.
	count atomic.Int64
	max   atomic.Int64

	subMu  sync.RWMutex
	subs   map[int]Subscriber
	nextID int

	diag *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithMaxQueueSize sets the retention bound. Non-positive values keep the
// default.
func WithMaxQueueSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.max.Store(int64(n))
		}
	}
}

// WithDiagnostics sets the logger used to report subscriber failures.
func WithDiagnostics(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.diag = l
		}
	}
}

// New returns an isolated sink. Most applications share Default instead; tests
// and embedded viewers construct their own.
func New(opts ...Option) *Sink {
	s := &Sink{
		seen: make(map[uuid.UUID]struct{}),
		subs: make(map[int]Subscriber),
		diag: slog.Default(),
	}
	s.max.Store(DefaultMaxQueueSize)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	defaultSink *Sink
	defaultOnce sync.Once
)

// Default returns the process-wide shared sink.
func Default() *Sink {
	defaultOnce.Do(func() {
		defaultSink = New()
	})
	return defaultSink
}

// Write records an event and notifies subscribers asynchronously. A nil event
// is ignored: logging must never fail the caller. Writing the same event
// instance twice is idempotent; the second write is dropped by identity.
func (s *Sink) Write(e *event.Event) {
	if s == nil || e == nil {
		return
	}

	s.mu.Lock()
	if _, dup := s.seen[e.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[e.ID] = struct{}{}
	s.queue = append(s.queue, e)
	n := s.count.Add(1)
	if max := s.max.Load(); n > max {
		s.trimLocked(int(max))
	}
	s.mu.Unlock()

	s.notify(e)
}

// trimLocked removes the overflow plus a tenth of capacity from the head, so
// a steady stream of writes amortizes to one trim per max/10 events. Trimmed
// identities leave the seen-set as well, which keeps dedupe state bounded by
// the queue itself.
func (s *Sink) trimLocked(max int) {
	drop := len(s.queue) - max + max/10
	if drop <= 0 {
		return
	}
	if drop > len(s.queue) {
		drop = len(s.queue)
	}
	for _, e := range s.queue[:drop] {
		delete(s.seen, e.ID)
	}
	s.queue = append(s.queue[:0:0], s.queue[drop:]...)
	s.count.Store(int64(len(s.queue)))
}

// notify fans the event out without blocking the producer. The single
// subscriber case skips the wait-group machinery; with several subscribers all
// handlers run concurrently and one background goroutine waits for the batch.
func (s *Sink) notify(e *event.Event) {
	s.subMu.RLock()
	var single Subscriber
	var many []Subscriber
	switch len(s.subs) {
	case 0:
	case 1:
		for _, sub := range s.subs {
			single = sub
		}
	default:
		many = make([]Subscriber, 0, len(s.subs))
		for _, sub := range s.subs {
			many = append(many, sub)
		}
	}
	s.subMu.RUnlock()

	if single != nil {
		go s.invoke(single, e)
		return
	}
	if len(many) == 0 {
		return
	}
	go func() {
		var wg sync.WaitGroup
		for _, sub := range many {
			wg.Add(1)
			go func(sub Subscriber) {
				defer wg.Done()
				s.invoke(sub, e)
			}(sub)
		}
		wg.Wait()
	}()
}

// invoke runs one subscriber, containing any panic so a broken handler can
// never take down its peers or the producer.
func (s *Sink) invoke(sub Subscriber, e *event.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.diag.Error("log subscriber panicked", "panic", r, "handle", e.Handle)
		}
	}()
	sub(e)
}

// Subscribe registers a handler for every subsequent event and returns the
// matching unsubscribe function. A nil handler is ignored and the returned
// function is a no-op.
func (s *Sink) Subscribe(sub Subscriber) (unsubscribe func()) {
	if s == nil || sub == nil {
		return func() {}
	}
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns a copy of the current backlog, oldest first.
func (s *Sink) Snapshot() []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	dup := make([]*event.Event, len(s.queue))
	copy(dup, s.queue)
	return dup
}

// Len returns the exact backlog length.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Clear drops the backlog and all dedupe state.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.seen = make(map[uuid.UUID]struct{})
	s.count.Store(0)
}

// MaxQueueSize returns the current retention bound.
func (s *Sink) MaxQueueSize() int {
	return int(s.max.Load())
}

// SetMaxQueueSize changes the retention bound. It takes effect on the next
// overflow evaluation; non-positive values restore the default.
func (s *Sink) SetMaxQueueSize(n int) {
	if n <= 0 {
		n = DefaultMaxQueueSize
	}
	s.max.Store(int64(n))
}
