package nexus

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/multierr"
)

// Option configures a bus during creation.
type Option func(*config)

// config holds internal configuration for bus creation.
type config struct {
	clock        clockz.Clock
	queueCap     int
	handlerLimit int
}

// WithClock sets the clock implementation used for queue latency
// accounting. Default is clockz.RealClock for production use.
// Use clockz.FakeClock for deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithQueueCapacity pre-allocates the queued-mode event buffer. The queue
// remains unbounded; this only sizes the initial allocation.
func WithQueueCapacity(n int) Option {
	return func(c *config) {
		c.queueCap = n
	}
}

// WithHandlerLimit caps the number of handlers registered per event kind.
// A subscribe that would exceed the limit fails with ErrTooManyHandlers.
// Default is 0, unlimited.
func WithHandlerLimit(n int) Option {
	return func(c *config) {
		c.handlerLimit = n
	}
}

// HandlerID is an opaque, monotonically increasing identity naming one
// registration. Identities are unique for the lifetime of a bus instance
// and are never reused, even after the registration is removed.
type HandlerID uint64

// handlerEntry is one registration in a kind's ordered list.
type handlerEntry struct {
	id HandlerID
	fn Handler
	mu *sync.Mutex // non-nil for exclusive entries; serializes invocation
}

// queuedEvent is one pending event in queued-dispatch mode.
type queuedEvent struct {
	event any
	at    time.Time
}

// Bus is the handler registry and dispatch engine. A Bus performs no
// internal locking: it is meant for single-owner use, with the caller
// supplying any synchronization needed. For a bus shared across
// goroutines, use SharedBus, which serializes access to one Bus.
//
// The identity allocator is atomic regardless, so identities stay unique
// across every handle that aliases this registry.
type Bus struct {
	clock        clockz.Clock
	handlers     map[Kind][]handlerEntry
	queue        []queuedEvent
	handlerLimit int
	total        int // live registrations across all kinds
	nextID       atomic.Uint64

	// Metrics field - zero initialization provides safe defaults
	metrics Metrics
}

// New creates an empty single-owner bus.
//
// Example:
//
//	bus := nexus.New()
//	sub, _ := nexus.Subscribe(bus, onMoved)
//	bus.Publish(Moved{X: 1, Y: 2})
func New(opts ...Option) *Bus {
	cfg := config{
		clock: clockz.RealClock, // default to real clock
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var queue []queuedEvent
	if cfg.queueCap > 0 {
		queue = make([]queuedEvent, 0, cfg.queueCap)
	}

	return &Bus{
		clock:        cfg.clock,
		handlers:     make(map[Kind][]handlerEntry),
		queue:        queue,
		handlerLimit: cfg.handlerLimit,
	}
}

// Subscribe appends a shareable handler to the tail of kind's list and
// returns its identity. Existing handlers keep their relative order.
func (b *Bus) Subscribe(kind Kind, h Handler) (HandlerID, error) {
	return b.subscribe(kind, h, false)
}

// SubscribeExclusive appends a handler whose invocation is serialized by a
// per-entry lock, so it may mutate captured state even when dispatch
// passes overlap on a shared bus.
func (b *Bus) SubscribeExclusive(kind Kind, h Handler) (HandlerID, error) {
	return b.subscribe(kind, h, true)
}

func (b *Bus) subscribe(kind Kind, h Handler, exclusive bool) (HandlerID, error) {
	if kind == nil {
		return 0, ErrNilKind
	}
	if h == nil {
		return 0, ErrNilHandler
	}
	if b.handlerLimit > 0 && len(b.handlers[kind]) >= b.handlerLimit {
		return 0, ErrTooManyHandlers
	}

	id := HandlerID(b.nextID.Add(1))
	entry := handlerEntry{id: id, fn: h}
	if exclusive {
		entry.mu = new(sync.Mutex)
	}

	b.handlers[kind] = append(b.handlers[kind], entry)
	b.total++
	return id, nil
}

// Unsubscribe removes the entry with the given identity from kind's list.
// When the list becomes empty the kind is pruned from the registry.
//
// Returns:
//   - nil: the entry was found and removed
//   - ErrKindNotFound: the kind has zero registered handlers
//   - *IdentityError: the kind exists but no entry has this identity
func (b *Bus) Unsubscribe(kind Kind, id HandlerID) error {
	if kind == nil {
		return ErrNilKind
	}
	entries, ok := b.handlers[kind]
	if !ok {
		return ErrKindNotFound
	}
	for i, entry := range entries {
		if entry.id == id {
			b.handlers[kind] = append(entries[:i], entries[i+1:]...)
			if len(b.handlers[kind]) == 0 {
				delete(b.handlers, kind)
			}
			b.total--
			return nil
		}
	}
	return &IdentityError{Kind: kind, ID: id}
}

// Publish invokes every handler registered for the event's kind, in
// registration order, and returns the pass's aggregated handler failures.
// A nil return means every handler ran without error.
//
// The pass iterates a snapshot taken before any handler runs, so a
// handler that subscribes or unsubscribes during the pass affects the
// next pass, not this one.
func (b *Bus) Publish(event any) error {
	if event == nil {
		return ErrNilEvent
	}
	kind := kindOfEvent(event)
	return b.runPass(kind, b.snapshotFor(kind), event)
}

// Dispatch enqueues the event without invoking any handler. Queued events
// are delivered by the next Process call, strictly FIFO.
func (b *Bus) Dispatch(event any) error {
	if event == nil {
		return ErrNilEvent
	}
	b.queue = append(b.queue, queuedEvent{event: event, at: b.clock.Now()})
	atomic.AddInt64(&b.metrics.EventsDispatched, 1)
	atomic.AddInt64(&b.metrics.QueueDepth, 1)
	return nil
}

// Process drains the queue to empty, applying Publish semantics to each
// dequeued event. Events enqueued by handlers during this same call are
// drained too, in arrival order. Failures from every pass are aggregated
// into the returned error.
func (b *Bus) Process() error {
	var errs error
	for {
		qe, ok := b.popQueued()
		if !ok {
			return errs
		}
		b.recordDrain(qe)
		kind := kindOfEvent(qe.event)
		errs = multierr.Append(errs, b.runPass(kind, b.snapshotFor(kind), qe.event))
	}
}

// Metrics returns a snapshot of the bus's counters. Counter values are
// read atomically; RegisteredHandlers follows the registry's own
// synchronization discipline (external for Bus, the internal lock for
// SharedBus).
func (b *Bus) Metrics() Metrics {
	return Metrics{
		EventsPublished:    atomic.LoadInt64(&b.metrics.EventsPublished),
		EventsDispatched:   atomic.LoadInt64(&b.metrics.EventsDispatched),
		EventsDrained:      atomic.LoadInt64(&b.metrics.EventsDrained),
		EventsDropped:      atomic.LoadInt64(&b.metrics.EventsDropped),
		QueueDepth:         atomic.LoadInt64(&b.metrics.QueueDepth),
		HandlersInvoked:    atomic.LoadInt64(&b.metrics.HandlersInvoked),
		HandlerErrors:      atomic.LoadInt64(&b.metrics.HandlerErrors),
		HandlerPanics:      atomic.LoadInt64(&b.metrics.HandlerPanics),
		RegisteredHandlers: int64(b.total),
		MaxQueueLatencyNs:  atomic.LoadInt64(&b.metrics.MaxQueueLatencyNs),
	}
}

// snapshotFor copies kind's entry list. The copy isolates the dispatch
// pass from structural edits made while handlers run.
func (b *Bus) snapshotFor(kind Kind) []handlerEntry {
	entries := b.handlers[kind]
	if len(entries) == 0 {
		return nil
	}
	snapshot := make([]handlerEntry, len(entries))
	copy(snapshot, entries)
	return snapshot
}

// popQueued removes and returns the oldest pending event.
func (b *Bus) popQueued() (queuedEvent, bool) {
	if len(b.queue) == 0 {
		return queuedEvent{}, false
	}
	qe := b.queue[0]
	b.queue[0] = queuedEvent{} // release the event for GC
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		b.queue = nil
	}
	atomic.AddInt64(&b.metrics.QueueDepth, -1)
	return qe, true
}

// dropQueue discards all pending events, counting them as dropped.
// Called when a SharedBus closes with a non-empty queue.
func (b *Bus) dropQueue() {
	if n := int64(len(b.queue)); n > 0 {
		atomic.AddInt64(&b.metrics.EventsDropped, n)
		atomic.AddInt64(&b.metrics.QueueDepth, -n)
		b.queue = nil
	}
}

// recordDrain updates queued-mode accounting for one dequeued event.
func (b *Bus) recordDrain(qe queuedEvent) {
	atomic.AddInt64(&b.metrics.EventsDrained, 1)
	latency := b.clock.Now().Sub(qe.at).Nanoseconds()
	for {
		prev := atomic.LoadInt64(&b.metrics.MaxQueueLatencyNs)
		if latency <= prev {
			return
		}
		if atomic.CompareAndSwapInt64(&b.metrics.MaxQueueLatencyNs, prev, latency) {
			return
		}
	}
}

// runPass invokes every entry of one snapshot against one event. It
// touches no registry state, so callers may run it without holding any
// lock. Failures are collected per entry and combined after the pass.
func (b *Bus) runPass(kind Kind, snapshot []handlerEntry, event any) error {
	atomic.AddInt64(&b.metrics.EventsPublished, 1)

	var errs error
	for _, entry := range snapshot {
		atomic.AddInt64(&b.metrics.HandlersInvoked, 1)
		if err := b.invoke(entry, event); err != nil {
			atomic.AddInt64(&b.metrics.HandlerErrors, 1)
			errs = multierr.Append(errs, &HandlerError{Kind: kind, ID: entry.id, Err: err})
		}
	}
	return errs
}

// invoke runs a single handler with panic recovery, so one misbehaving
// handler cannot take down the dispatch pass.
func (b *Bus) invoke(entry handlerEntry, event any) (err error) {
	if entry.mu != nil {
		entry.mu.Lock()
		defer entry.mu.Unlock()
	}
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&b.metrics.HandlerPanics, 1)
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return entry.fn(event)
}
