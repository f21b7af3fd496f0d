package threadsync

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNilTarget is returned by NewThread when no Runnable was provided.
	ErrNilTarget = errors.New("threadsync: nil target")

	// ErrClosed indicates an operation on, or a second Close of, a released primitive.
	ErrClosed = errors.New("threadsync: primitive has been closed")

	// ErrMutexHeld is returned by RecursiveMutex.Close while the mutex is owned.
	ErrMutexHeld = errors.New("threadsync: mutex is held")

	// ErrThreadRunning is returned by Thread.Close while the entry point has not returned.
	ErrThreadRunning = errors.New("threadsync: thread entry point is still running")

	// ErrInvalidOption is wrapped by errors caused by an invalid Option.
	ErrInvalidOption = errors.New("threadsync: invalid option")

	// ErrAffinityUnsupported indicates CPU affinity cannot be applied on this platform.
	ErrAffinityUnsupported = errors.New("threadsync: cpu affinity unsupported on this platform")
)

// AcquisitionError reports a failure to construct or acquire a RecursiveMutex.
type AcquisitionError struct {
	Cause error
	// Op is the operation that failed, e.g. "new" or "lock".
	Op   string
	Name string
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	return formatError("mutex", e.Op, e.Name, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}

// ThreadCreationError reports that the execution context of a Thread could
// not be set up. The entry point is never invoked when this is returned.
type ThreadCreationError struct {
	Cause error
	Name  string
}

// Error implements the error interface.
func (e *ThreadCreationError) Error() string {
	return formatError("thread", "create", e.Name, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ThreadCreationError) Unwrap() error {
	return e.Cause
}

// EventInitError reports that an Event could not be constructed.
type EventInitError struct {
	Cause error
	Name  string
}

// Error implements the error interface.
func (e *EventInitError) Error() string {
	return formatError("event", "init", e.Name, e.Cause)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *EventInitError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panicking Runnable.
type PanicError struct {
	Value any
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("threadsync: entry point panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error, otherwise nil.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func formatError(kind, op, name string, cause error) string {
	msg := "threadsync: " + kind + " " + op
	if name != "" {
		msg += fmt.Sprintf(" %q", name)
	}
	if cause != nil {
		msg += ": " + cause.Error()
	} else {
		msg += " failed"
	}
	return msg
}
