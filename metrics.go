package nexus

// Metrics provides observability data for bus monitoring. All counter
// fields are updated with atomic operations; read a consistent snapshot
// through Bus.Metrics or SharedBus.Metrics rather than from the struct a
// bus holds internally.
type Metrics struct {
	// Immediate-mode throughput
	EventsPublished int64 // Dispatch passes executed (Publish + drained events)
	HandlersInvoked int64 // Handler invocations across all passes
	HandlerErrors   int64 // Invocations that returned an error or panicked
	HandlerPanics   int64 // Invocations that panicked (also counted as errors)

	// Queued-mode accounting
	EventsDispatched  int64 // Events enqueued via Dispatch
	EventsDrained     int64 // Events dequeued and delivered by Process
	EventsDropped     int64 // Pending events discarded by Close
	QueueDepth        int64 // Events currently pending
	MaxQueueLatencyNs int64 // Longest observed enqueue-to-drain latency

	// Registry state
	RegisteredHandlers int64 // Current live registrations across all kinds
}
