package nexus

import "sync/atomic"

// Subscription is a revocable handle to one live registration: an
// immutable (kind, identity) pair plus an activation flag. It is returned
// by the typed Subscribe helpers and created for each binding attached by
// a Bindings builder.
//
// Deactivation is idempotent and irreversible, and by contract also
// removes the matching entry from the owning registry: "deactivated" and
// "removed from the bus" mean the same thing. A component that needs the
// handler again must subscribe anew, receiving a fresh identity.
//
// Subscription methods are safe for concurrent use.
type Subscription struct {
	kind     Kind
	id       HandlerID
	registry Registry
	active   atomic.Bool
}

func newSubscription(kind Kind, id HandlerID, registry Registry) *Subscription {
	s := &Subscription{kind: kind, id: id, registry: registry}
	s.active.Store(true)
	return s
}

// Kind returns the event kind this subscription is registered for.
func (s *Subscription) Kind() Kind {
	return s.kind
}

// ID returns the handler identity of this registration.
func (s *Subscription) ID() HandlerID {
	return s.id
}

// IsActive reports whether the subscription still holds a live
// registration.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

// Deactivate flips the subscription inactive and removes its entry from
// the owning registry. Only the first call does any work; repeat calls
// are no-ops returning nil.
//
// Structural registry errors are returned, never swallowed: if the entry
// was already removed through the registry directly, the registry's
// not-found outcome surfaces here even though the flag still flips.
func (s *Subscription) Deactivate() error {
	if !s.active.CompareAndSwap(true, false) {
		return nil
	}
	return s.registry.Unsubscribe(s.kind, s.id)
}
