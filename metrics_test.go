package nexus

import (
	"errors"
	"testing"
)

func TestMetricsZeroValue(t *testing.T) {
	m := New().Metrics()
	if m != (Metrics{}) {
		t.Errorf("Fresh bus should report zeroed metrics, got %+v", m)
	}
}

func TestMetricsImmediateMode(t *testing.T) {
	bus := New()

	ok, err := Subscribe(bus, func(Tick) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := Subscribe(bus, func(Tick) error { return errors.New("nope") }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := Subscribe(bus, func(Tick) error { panic("ouch") }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if m := bus.Metrics(); m.RegisteredHandlers != 3 {
		t.Errorf("RegisteredHandlers = %d, expected 3", m.RegisteredHandlers)
	}

	_ = bus.Publish(Tick{N: 1})
	_ = bus.Publish(Tick{N: 2})

	m := bus.Metrics()
	if m.EventsPublished != 2 {
		t.Errorf("EventsPublished = %d, expected 2", m.EventsPublished)
	}
	if m.HandlersInvoked != 6 {
		t.Errorf("HandlersInvoked = %d, expected 6", m.HandlersInvoked)
	}
	if m.HandlerErrors != 4 {
		t.Errorf("HandlerErrors = %d, expected 4 (2 failures + 2 panics)", m.HandlerErrors)
	}
	if m.HandlerPanics != 2 {
		t.Errorf("HandlerPanics = %d, expected 2", m.HandlerPanics)
	}

	if err := ok.Deactivate(); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if m := bus.Metrics(); m.RegisteredHandlers != 2 {
		t.Errorf("RegisteredHandlers after removal = %d, expected 2", m.RegisteredHandlers)
	}
}

func TestMetricsQueuedMode(t *testing.T) {
	bus := New()

	if _, err := Subscribe(bus, func(Tick) error { return nil }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	bus.Dispatch(Tick{N: 1})
	bus.Dispatch(Tick{N: 2})

	m := bus.Metrics()
	if m.EventsDispatched != 2 || m.QueueDepth != 2 || m.EventsDrained != 0 {
		t.Errorf("Pre-drain: dispatched=%d depth=%d drained=%d, expected 2/2/0",
			m.EventsDispatched, m.QueueDepth, m.EventsDrained)
	}
	if m.EventsPublished != 0 {
		t.Errorf("Dispatch alone must not count a pass, EventsPublished=%d", m.EventsPublished)
	}

	if err := bus.Process(); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	m = bus.Metrics()
	if m.EventsDrained != 2 || m.QueueDepth != 0 {
		t.Errorf("Post-drain: drained=%d depth=%d, expected 2/0", m.EventsDrained, m.QueueDepth)
	}
	if m.EventsPublished != 2 {
		t.Errorf("Each drained event counts a pass, EventsPublished=%d", m.EventsPublished)
	}
}

func TestMetricsSharedBusSnapshot(t *testing.T) {
	bus := NewShared()
	defer bus.Close()

	if _, err := Subscribe(bus, func(Moved) error { return nil }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := bus.Publish(Moved{X: 1, Y: 1}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	m := bus.Metrics()
	if m.RegisteredHandlers != 1 || m.EventsPublished != 1 || m.HandlersInvoked != 1 {
		t.Errorf("Unexpected shared snapshot: %+v", m)
	}
}
