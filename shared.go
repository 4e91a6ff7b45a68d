package nexus

import (
	"sync"

	"go.uber.org/multierr"
)

// SharedBus is an internally-synchronized handle over one Bus, usable from
// multiple goroutines. Every handle reached through the same pointer
// aliases the same registry, queue, and identity allocator.
//
// The lock is held only for structural edits and for taking the dispatch
// snapshot; handler bodies always run with the lock released. A handler
// may therefore call Subscribe, Unsubscribe, Publish, Dispatch, or Process
// on the bus that invoked it. Mutations made while a pass is in flight
// become visible on the next pass, per the snapshot rule.
//
// Once Close has been called, every operation fails with a PublishError
// wrapping ErrBusClosed. Events are never silently dropped.
type SharedBus struct {
	mu     sync.Mutex
	bus    *Bus
	closed bool
}

// NewShared creates a SharedBus over a fresh registry.
func NewShared(opts ...Option) *SharedBus {
	return &SharedBus{bus: New(opts...)}
}

// Subscribe appends a shareable handler for kind and returns its identity.
func (s *SharedBus) Subscribe(kind Kind, h Handler) (HandlerID, error) {
	return s.subscribe(kind, h, false)
}

// SubscribeExclusive appends a handler with serialized invocation.
func (s *SharedBus) SubscribeExclusive(kind Kind, h Handler) (HandlerID, error) {
	return s.subscribe(kind, h, true)
}

func (s *SharedBus) subscribe(kind Kind, h Handler, exclusive bool) (HandlerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, s.closedErr("subscribe")
	}
	return s.bus.subscribe(kind, h, exclusive)
}

// Unsubscribe removes the entry with the given identity. Outcomes match
// Bus.Unsubscribe; a closed bus yields a PublishError instead.
func (s *SharedBus) Unsubscribe(kind Kind, id HandlerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr("unsubscribe")
	}
	return s.bus.Unsubscribe(kind, id)
}

// Publish invokes every handler registered for the event's kind, in
// registration order. The snapshot is taken under the lock; invocation
// happens after the lock is released.
func (s *SharedBus) Publish(event any) error {
	if event == nil {
		return ErrNilEvent
	}
	kind := kindOfEvent(event)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.closedErr("publish")
	}
	snapshot := s.bus.snapshotFor(kind)
	s.mu.Unlock()

	return s.bus.runPass(kind, snapshot, event)
}

// Dispatch enqueues the event without invoking any handler.
func (s *SharedBus) Dispatch(event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr("dispatch")
	}
	return s.bus.Dispatch(event)
}

// Process drains the queue to empty with Publish semantics per event,
// including events enqueued by handlers during this same call. Each
// event is dequeued and snapshotted under the lock, then delivered with
// the lock released, so draining serializes with structural edits without
// ever holding the lock across a handler body.
func (s *SharedBus) Process() error {
	var errs error
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return multierr.Append(errs, s.closedErr("process"))
		}
		qe, ok := s.bus.popQueued()
		var kind Kind
		var snapshot []handlerEntry
		if ok {
			s.bus.recordDrain(qe)
			kind = kindOfEvent(qe.event)
			snapshot = s.bus.snapshotFor(kind)
		}
		s.mu.Unlock()

		if !ok {
			return errs
		}
		errs = multierr.Append(errs, s.bus.runPass(kind, snapshot, qe.event))
	}
}

// Metrics returns a snapshot of the underlying bus's counters.
func (s *SharedBus) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Metrics()
}

// Close marks the bus unreachable. Pending queued events are discarded
// and counted in Metrics.EventsDropped. Registered handlers are released
// with the registry; no further operation will invoke them.
//
// Returns ErrAlreadyClosed when called a second time.
func (s *SharedBus) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	s.bus.dropQueue()
	return nil
}

func (s *SharedBus) closedErr(op string) error {
	return &PublishError{Details: op + " on closed bus", Err: ErrBusClosed}
}
