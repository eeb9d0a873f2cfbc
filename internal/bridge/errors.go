package bridge

import (
	"errors"
)

// Error is an error produced at the engine boundary. Msg is the exact text
// reported to the host, e.g. a formatted uncaught exception or one of the
// fixed diagnostics below. Cause, if set, is the underlying engine error.
type Error struct {
	Msg   string
	Cause error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Cause }

// Fixed diagnostics. They are compared by identity with errors.Is.
var (
	ErrNotObject   = &Error{Msg: "Not an object"}
	ErrNotFunction = &Error{Msg: "Not a function"}
	ErrNotPromise  = &Error{Msg: "Not a promise"}

	ErrArrayBufferNotNumber = &Error{Msg: "Cannot assign non-number into array buffer"}
	ErrArrayBufferRange     = &Error{Msg: "Cannot assign to an index beyond the size of an array buffer"}

	// ErrSetNothing is reported when a property or element assignment threw
	// instead of producing a result.
	ErrSetNothing = &Error{Msg: "Something went wrong -- set returned nothing."}
	// ErrSetFailed is reported when a property or element assignment was
	// rejected, e.g. a frozen object or a non-writable property.
	ErrSetFailed = &Error{Msg: "Something went wrong -- set failed."}

	// ErrNoDispatcher is thrown into the engine when a registered callback
	// is invoked before Init.
	ErrNoDispatcher = &Error{Msg: "Callback handler not init"}

	ErrInvalidFilename  = &Error{Msg: "Invalid filename: not valid UTF-8"}
	ErrInvalidName      = &Error{Msg: "Something went wrong -- local value for field name could not be constructed."}
	ErrDateRange        = &Error{Msg: "Date value out of range"}
	ErrUnknownImmediate = &Error{Msg: "Unknown immediate value type"}
)

var (
	// ErrDispatcherInstalled is returned by Init after the first call.
	ErrDispatcherInstalled = errors.New("bridge: callback dispatcher already installed")
	// ErrReleased is returned by operations on a released Runtime or Context.
	ErrReleased = errors.New("bridge: released")
	// ErrReleasedValue is returned when a handle was released or belongs to
	// a released Context.
	ErrReleasedValue = errors.New("bridge: value released")
	// ErrForeignValue is returned when a handle is passed to a Context
	// other than the one that created it.
	ErrForeignValue = errors.New("bridge: value belongs to another context")
	// ErrTerminated is the interrupt value used by Runtime.Terminate.
	ErrTerminated = errors.New("execution terminated")
	// ErrInvalidSnapshot is returned for startup data that was not produced
	// by CreateSnapshot.
	ErrInvalidSnapshot = errors.New("bridge: invalid snapshot data")
)
