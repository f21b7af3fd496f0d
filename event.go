package threadsync

import (
	"context"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Infinite is the timeout that makes Event.Wait block until signaled.
const Infinite uint32 = 0xFFFFFFFF

// WaitResult is the outcome of waiting on an Event.
type WaitResult int

const (
	// Signaled indicates the event was in the signaled state.
	Signaled WaitResult = iota
	// TimedOut indicates the wait gave up before the event was signaled.
	TimedOut
	// Closed indicates the event was closed before, or while, waiting.
	Closed
)

// String returns a human-readable representation of the result.
func (r WaitResult) String() string {
	switch r {
	case Signaled:
		return "Signaled"
	case TimedOut:
		return "TimedOut"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Event is a manual-reset synchronization event. Once signaled, it stays
// signaled (releasing every waiter) until Reset is called.
//
// State Machine:
//
//	Signaled   → Unsignaled  [Reset()]
//	Unsignaled → Signaled    [Set()]
//	(any)      → closed      [Close()]  (terminal)
//
// New events start Signaled. Callers that want Wait to block until the first
// Set must call Reset after construction.
type Event struct {
	logger *logiface.Logger[logiface.Event]
	name   string
	mu     sync.Mutex
	// closed while the event is signaled, replaced by Reset
	signal chan struct{}
	// closed by Close
	done   chan struct{}
	closed bool
}

// NewEvent constructs a new Event, in the signaled state. An *EventInitError
// is returned if any option is invalid.
func NewEvent(opts ...Option) (*Event, error) {
	cfg, err := resolveOptions(`event`, opts)
	if err != nil {
		return nil, &EventInitError{Cause: err}
	}
	e := &Event{
		logger: cfg.logger,
		name:   cfg.name,
		signal: make(chan struct{}),
		done:   make(chan struct{}),
	}
	close(e.signal)
	return e, nil
}

// Name returns the name of the event, see WithName.
func (e *Event) Name() string {
	return e.name
}

// Set moves the event to the signaled state, releasing all current waiters.
// Any wait that starts after Set returns observes the signal, until Reset.
// Set is a no-op on a closed event.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case <-e.signal:
	default:
		close(e.signal)
	}
}

// Reset moves the event to the unsignaled state. It is a no-op on a closed
// event.
func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case <-e.signal:
		e.signal = make(chan struct{})
	default:
	}
}

// IsSet reports whether the event is currently signaled.
func (e *Event) IsSet() bool {
	signal, closed := e.state()
	if closed {
		return false
	}
	select {
	case <-signal:
		return true
	default:
		return false
	}
}

// Wait blocks until the event is signaled, or timeoutMs milliseconds have
// elapsed. A timeoutMs of Infinite waits without bound, while 0 polls the
// current state without blocking.
//
// A timeout is an expected outcome, reported as TimedOut.
func (e *Event) Wait(timeoutMs uint32) WaitResult {
	signal, closed := e.state()
	if closed {
		return Closed
	}

	select {
	case <-signal:
		return Signaled
	default:
	}

	switch timeoutMs {
	case 0:
		return TimedOut

	case Infinite:
		select {
		case <-signal:
			return Signaled
		case <-e.done:
			return Closed
		}
	}

	timer := time.NewTimer(timeoutDuration(timeoutMs))
	defer timer.Stop()

	select {
	case <-signal:
		return Signaled
	case <-e.done:
		return Closed
	case <-timer.C:
		return TimedOut
	}
}

// WaitContext is like Wait, but bounded by ctx rather than a timeout. If ctx
// is done first, TimedOut is returned along with the context's error.
func (e *Event) WaitContext(ctx context.Context) (WaitResult, error) {
	signal, closed := e.state()
	if closed {
		return Closed, nil
	}

	select {
	case <-signal:
		return Signaled, nil
	default:
	}

	if err := ctx.Err(); err != nil {
		return TimedOut, err
	}

	select {
	case <-signal:
		return Signaled, nil
	case <-e.done:
		return Closed, nil
	case <-ctx.Done():
		return TimedOut, ctx.Err()
	}
}

// Close releases the event, waking every blocked waiter with Closed. All
// later waits return Closed immediately. A second Close returns ErrClosed.
func (e *Event) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.logger.Debug().
		Str(`event`, e.name).
		Log(`event closed`)

	return nil
}

// state returns the current signal channel, which is closed if signaled.
func (e *Event) state() (<-chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signal, e.closed
}

// timeoutDuration converts a millisecond timeout, carrying whole seconds
// separately so no part of the value is truncated. The largest uint32 value
// is a little under 50 days, well within time.Duration's range.
func timeoutDuration(ms uint32) time.Duration {
	return time.Duration(ms/1000)*time.Second +
		time.Duration(ms%1000)*time.Millisecond
}
