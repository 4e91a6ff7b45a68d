package nexus

import "go.uber.org/multierr"

// SubscriptionSet is an owned collection of Subscriptions with guaranteed
// bulk cleanup. Components typically hold one set for all of their
// registrations and release it when they deactivate:
//
//	set := nexus.NewSubscriptionSet()
//	defer set.Close()
//
// Every member is deactivated exactly once, either through an explicit
// Clear or through Close. Releasing a set via Close without a prior Clear
// leaves the bus in the identical state an explicit Clear would.
//
// A set is single-owner like Bus: it performs no internal locking.
type SubscriptionSet struct {
	subs []*Subscription
}

// NewSubscriptionSet creates an empty set.
func NewSubscriptionSet() *SubscriptionSet {
	return &SubscriptionSet{}
}

// Add takes ownership of a subscription. The subscription will be
// deactivated when the set is cleared or closed.
func (s *SubscriptionSet) Add(sub *Subscription) {
	if sub == nil {
		return
	}
	s.subs = append(s.subs, sub)
}

// Len returns the number of owned subscriptions.
func (s *SubscriptionSet) Len() int {
	return len(s.subs)
}

// IsEmpty reports whether the set owns no subscriptions.
func (s *SubscriptionSet) IsEmpty() bool {
	return len(s.subs) == 0
}

// Clear deactivates every owned subscription, then empties the set.
// Deactivation failures are aggregated; the sweep never stops early, so
// the post-condition IsEmpty() holds regardless of the returned error.
// The set remains usable after Clear.
func (s *SubscriptionSet) Clear() error {
	var errs error
	for _, sub := range s.subs {
		errs = multierr.Append(errs, sub.Deactivate())
	}
	s.subs = nil
	return errs
}

// Close releases the set, deactivating every remaining member. It is the
// teardown path for deferred cleanup and is equivalent to Clear;
// closing an already-empty or already-cleared set is a no-op.
func (s *SubscriptionSet) Close() error {
	return s.Clear()
}
