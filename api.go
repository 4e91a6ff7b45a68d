// Package nexus provides an in-process, typed publish/subscribe dispatch
// engine: a registry that maps an event's concrete type to an ordered list
// of handlers, assigns every registration a unique identity, and delivers
// events either immediately (Publish) or through an explicit queue-and-drain
// cycle (Dispatch + Process).
//
// The package has two bus shapes:
//   - Bus: a single-owner registry with no internal locking. The caller
//     supplies any synchronization it needs.
//   - SharedBus: an internally-locked handle over one registry, safe to use
//     from multiple goroutines. Handler bodies always run outside the lock,
//     so handlers may freely subscribe, unsubscribe, and publish on the same
//     bus without deadlocking.
//
// Basic Usage:
//
//	bus := nexus.NewShared()
//	defer bus.Close()
//
//	sub, err := nexus.Subscribe(bus, func(m Moved) error {
//		fmt.Printf("moved to (%d, %d)\n", m.X, m.Y)
//		return nil
//	})
//	if err != nil {
//		return err
//	}
//	defer sub.Deactivate()
//
//	if err := bus.Publish(Moved{X: 1, Y: 2}); err != nil {
//		return err
//	}
//
// Queued Usage:
//
//	bus.Dispatch(Moved{X: 1, Y: 2}) // enqueue only, no handler runs
//	bus.Dispatch(Moved{X: 3, Y: 4})
//	bus.Process()                   // drain FIFO, invoking handlers
//
// Component Integration:
//
// Components that register several handlers at once should assemble a
// Bindings value and attach it into an owned SubscriptionSet:
//
//	var bindings nexus.Bindings
//	nexus.Bind(&bindings, c.onMoved)
//	nexus.Bind(&bindings, c.onDamaged)
//
//	set := nexus.NewSubscriptionSet()
//	defer set.Close() // guarantees every registration is removed
//	if err := bindings.Attach(bus, set); err != nil {
//		return err
//	}
//
// Dispatch Semantics:
//
// Handlers for a given kind fire in registration order. Each dispatch pass
// iterates a snapshot of the kind's handler list taken before any handler
// runs: handlers added during the pass are first invoked on the next pass,
// and handlers removed during the pass may still be invoked once more for
// the event currently in flight. This is intended behavior, not a defect.
// One handler's failure never suppresses the remaining handlers of the
// pass; failures are aggregated and returned after the pass completes.
package nexus

import "reflect"

// Kind identifies an event's concrete type and is the registry's dispatch
// key. It is a type alias for reflect.Type so callers interoperating with
// the erased surface can pass a reflect.Type directly.
//
// Most code never constructs a Kind by hand; the typed Subscribe helpers
// and Publish derive it from the payload type. When the erased surface is
// needed (for example by generated registration code), use KindOf:
//
//	id, err := bus.Subscribe(nexus.KindOf[Moved](), handler)
type Kind = reflect.Type

// KindOf returns the Kind for the concrete event type E.
func KindOf[E any]() Kind {
	return reflect.TypeOf((*E)(nil)).Elem()
}

// kindOfEvent derives the dispatch key from an event value.
func kindOfEvent(event any) Kind {
	return reflect.TypeOf(event)
}

// Handler is the type-erased callback stored in the registry. The typed
// Subscribe helpers wrap a concrete-kind callback in a Handler that views
// the event as its expected type; a kind mismatch is an inert no-op.
type Handler func(event any) error

// Registry is the registration surface shared by Bus and SharedBus. The
// typed Subscribe helpers and the Bindings builder operate over this
// interface, so components work identically against either bus shape.
type Registry interface {
	// Subscribe appends a shareable handler for kind and returns its
	// identity. Registration order is preserved per kind.
	Subscribe(kind Kind, h Handler) (HandlerID, error)

	// SubscribeExclusive appends a handler whose invocation is serialized:
	// the engine never runs it concurrently with itself, so it may safely
	// mutate captured state.
	SubscribeExclusive(kind Kind, h Handler) (HandlerID, error)

	// Unsubscribe removes the entry with the given identity. It returns
	// ErrKindNotFound when the kind has no registered handlers, and an
	// IdentityError when the kind exists but the identity does not.
	Unsubscribe(kind Kind, id HandlerID) error
}

// Subscribe registers fn for events of type E and returns a Subscription
// that owns the registration. The handler receives each published E by
// value, in registration order relative to other handlers for E.
func Subscribe[E any](r Registry, fn func(E) error) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	kind := KindOf[E]()
	id, err := r.Subscribe(kind, eraseHandler(fn))
	if err != nil {
		return nil, err
	}
	return newSubscription(kind, id, r), nil
}

// SubscribeExclusive registers fn for events of type E with serialized
// invocation, allowing fn to mutate its captured state without further
// locking. An exclusive handler must not synchronously publish events of
// its own kind; doing so would self-deadlock on its invocation lock.
func SubscribeExclusive[E any](r Registry, fn func(E) error) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	kind := KindOf[E]()
	id, err := r.SubscribeExclusive(kind, eraseHandler(fn))
	if err != nil {
		return nil, err
	}
	return newSubscription(kind, id, r), nil
}

// eraseHandler wraps a concrete-kind callback in the stored Handler form.
// The type assertion mirrors the registry keying, so a mismatch should be
// unreachable; it is handled as a no-op rather than a crash regardless.
func eraseHandler[E any](fn func(E) error) Handler {
	return func(event any) error {
		if e, ok := event.(E); ok {
			return fn(e)
		}
		return nil
	}
}
