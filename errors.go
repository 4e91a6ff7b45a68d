package nexus

import (
	"errors"
	"fmt"
)

// Registry Errors
//
// These errors are returned by registration and removal operations.

// ErrNilHandler is returned when a nil handler or callback is supplied
// to any subscribe variant.
var ErrNilHandler = errors.New("handler cannot be nil")

// ErrNilKind is returned when a nil Kind is supplied to the erased
// subscribe or unsubscribe surface.
var ErrNilKind = errors.New("event kind cannot be nil")

// ErrKindNotFound is returned by Unsubscribe when the referenced kind has
// zero registered handlers. It is distinct from an IdentityError, which
// means the kind exists but the identity does not.
var ErrKindNotFound = errors.New("no handlers registered for event kind")

// ErrIdentityNotFound is the errors.Is target for IdentityError.
var ErrIdentityNotFound = errors.New("handler identity not found")

// ErrTooManyHandlers is returned when registering a handler would exceed
// the per-kind limit configured with WithHandlerLimit.
var ErrTooManyHandlers = errors.New("handler limit exceeded for event kind")

// Bus Lifecycle Errors
//
// These errors are returned based on a SharedBus's lifecycle state.

// ErrBusClosed is the cause carried by the PublishError that every
// operation on a closed SharedBus returns. A closed bus never silently
// drops an event.
var ErrBusClosed = errors.New("bus is closed")

// ErrAlreadyClosed is returned when calling Close on a SharedBus that has
// already been closed.
var ErrAlreadyClosed = errors.New("bus already closed")

// Dispatch Errors
//
// These errors are produced during a dispatch pass.

// ErrNilEvent is returned when a nil event is published or dispatched.
// A nil interface value has no concrete type and therefore no Kind.
var ErrNilEvent = errors.New("event cannot be nil")

// ErrHandlerFailure is the errors.Is target for HandlerError.
var ErrHandlerFailure = errors.New("handler invocation failed")

// ErrHandlerPanic is the errors.Is target for PanicError.
var ErrHandlerPanic = errors.New("handler panicked")

// IdentityError reports an Unsubscribe that referenced an identity with no
// live entry for the given kind.
type IdentityError struct {
	Kind Kind
	ID   HandlerID
}

// Error implements the error interface.
func (e *IdentityError) Error() string {
	return fmt.Sprintf("handler %d not found for kind %v", e.ID, e.Kind)
}

// Is allows errors.Is to match IdentityError with ErrIdentityNotFound.
func (e *IdentityError) Is(target error) bool {
	return target == ErrIdentityNotFound
}

// PublishError reports that the bus itself could not be reached, for
// example because the SharedBus has been closed. It never describes a
// handler failure; see HandlerError for those.
type PublishError struct {
	// Details describes the operation that could not reach the bus.
	Details string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	if e.Err == nil {
		return "publish failed: " + e.Details
	}
	return "publish failed: " + e.Details + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *PublishError) Unwrap() error {
	return e.Err
}

// HandlerError wraps a single handler invocation failure with the kind and
// identity of the failing registration. During one dispatch pass every
// failing handler produces its own HandlerError; the pass returns them
// combined, after all handlers have run.
type HandlerError struct {
	Kind Kind
	ID   HandlerID
	Err  error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d for kind %v: %v", e.ID, e.Kind, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match HandlerError with ErrHandlerFailure.
func (e *HandlerError) Is(target error) bool {
	return target == ErrHandlerFailure
}

// PanicError wraps a value recovered from a panicking handler. It is
// always nested inside the pass's HandlerError for that registration.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at recovery.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
