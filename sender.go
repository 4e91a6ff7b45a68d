package nexus

// Publisher is the minimal surface a Sender needs: immediate delivery of
// one event. Both *Bus and *SharedBus implement it.
type Publisher interface {
	Publish(event any) error
}

// Sender is a lightweight publishing facade for components that emit
// events but never subscribe. Holding a Sender instead of the bus itself
// keeps a producer's dependency surface to the single operation it uses.
//
//	type Turnstile struct {
//		events *nexus.Sender
//	}
//
//	func (t *Turnstile) Pass() error {
//		return t.events.Emit(Entered{Gate: t.gate})
//	}
type Sender struct {
	bus Publisher
}

// NewSender wraps the given bus in a Sender.
func NewSender(bus Publisher) *Sender {
	return &Sender{bus: bus}
}

// Emit publishes the event to all subscribers, with Publish semantics.
func (s *Sender) Emit(event any) error {
	return s.bus.Publish(event)
}

// Bus returns the wrapped bus for callers that need the full surface.
func (s *Sender) Bus() Publisher {
	return s.bus
}
