package nexus

// Binding is one declared registration: an event kind, the erased handler
// to run for it, and whether invocation must be exclusive.
type Binding struct {
	Kind      Kind
	Handler   Handler
	Exclusive bool
}

// Bindings is an enumerable list of registrations that a component
// assembles up front and hands to a bus at activation time. It replaces
// scattered subscribe calls with one declarative block:
//
//	var b nexus.Bindings
//	nexus.Bind(&b, player.onMoved)
//	nexus.BindExclusive(&b, player.onDamaged)
//	err := b.Attach(bus, set)
//
// The zero value is ready to use.
type Bindings struct {
	bindings []Binding
}

// Add appends a pre-erased binding. Most callers use the typed Bind and
// BindExclusive helpers instead.
func (b *Bindings) Add(binding Binding) {
	b.bindings = append(b.bindings, binding)
}

// Len returns the number of declared bindings.
func (b *Bindings) Len() int {
	return len(b.bindings)
}

// Bind declares a shareable handler for events of type E.
func Bind[E any](b *Bindings, fn func(E) error) {
	var h Handler
	if fn != nil {
		h = eraseHandler(fn)
	}
	b.Add(Binding{Kind: KindOf[E](), Handler: h})
}

// BindExclusive declares an exclusive handler for events of type E.
func BindExclusive[E any](b *Bindings, fn func(E) error) {
	var h Handler
	if fn != nil {
		h = eraseHandler(fn)
	}
	b.Add(Binding{Kind: KindOf[E](), Handler: h, Exclusive: true})
}

// Attach registers every binding against r, in declaration order, placing
// each resulting Subscription into set. On the first registration failure
// Attach stops and returns that error; subscriptions already made remain
// owned by the set, so the component's usual set teardown still removes
// them from the bus.
func (b *Bindings) Attach(r Registry, set *SubscriptionSet) error {
	for _, binding := range b.bindings {
		var (
			id  HandlerID
			err error
		)
		if binding.Exclusive {
			id, err = r.SubscribeExclusive(binding.Kind, binding.Handler)
		} else {
			id, err = r.Subscribe(binding.Kind, binding.Handler)
		}
		if err != nil {
			return err
		}
		set.Add(newSubscription(binding.Kind, id, r))
	}
	return nil
}
