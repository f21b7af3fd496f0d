package threadsync

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-threadsync/internal/goid"
	"github.com/joeycumines/logiface"
)

// RecursiveMutex is a mutual exclusion lock that the owning goroutine may
// acquire again without blocking. Ownership is released only once Unlock has
// been called as many times as Lock (or successful TryLock).
//
// Instances must be initialized using NewRecursiveMutex, and should be
// released using Close, by the same party. Acquisition order among blocked
// goroutines is unspecified.
type RecursiveMutex struct {
	logger    *logiface.Logger[logiface.Event]
	name      string
	threshold time.Duration
	mu        sync.Mutex
	// goroutine id of the owner, or 0
	owner atomic.Int64
	// nesting depth, only accessed by the owner
	depth  int
	closed atomic.Bool
}

var _ sync.Locker = (*RecursiveMutex)(nil)

// NewRecursiveMutex constructs a new, unlocked, RecursiveMutex. An
// *AcquisitionError is returned if any option is invalid.
func NewRecursiveMutex(opts ...Option) (*RecursiveMutex, error) {
	cfg, err := resolveOptions(`mutex`, opts)
	if err != nil {
		return nil, &AcquisitionError{Op: `new`, Cause: err}
	}
	return &RecursiveMutex{
		logger:    cfg.logger,
		name:      cfg.name,
		threshold: cfg.contentionThreshold,
	}, nil
}

// Name returns the name of the mutex, see WithName.
func (m *RecursiveMutex) Name() string {
	return m.name
}

// Lock blocks until the calling goroutine owns the mutex. If the calling
// goroutine already owns it, Lock returns immediately, incrementing the
// nesting depth.
//
// Lock panics if the mutex has been closed.
func (m *RecursiveMutex) Lock() {
	id := goid.Get()
	if m.owner.Load() == id {
		m.depth++
		return
	}

	m.checkOpen(`lock`)

	if !m.mu.TryLock() {
		start := time.Now()
		m.mu.Lock()
		if m.threshold > 0 {
			if waited := time.Since(start); waited >= m.threshold {
				warning(m.logger, m.name).
					Str(`mutex`, m.name).
					Dur(`waited`, waited).
					Dur(`threshold`, m.threshold).
					Log(`slow mutex acquisition`)
			}
		}
	}
	m.checkAcquired(`lock`)

	m.owner.Store(id)
	m.depth = 1
}

// TryLock attempts to acquire the mutex without blocking, reporting whether
// it succeeded. It always succeeds for the current owner.
//
// TryLock panics if the mutex has been closed.
func (m *RecursiveMutex) TryLock() bool {
	id := goid.Get()
	if m.owner.Load() == id {
		m.depth++
		return true
	}

	m.checkOpen(`trylock`)

	if !m.mu.TryLock() {
		return false
	}
	m.checkAcquired(`trylock`)

	m.owner.Store(id)
	m.depth = 1
	return true
}

// Unlock releases one level of ownership. The mutex becomes available to
// other goroutines when the nesting depth reaches zero.
//
// It is a run-time error (panic) if the calling goroutine does not own the
// mutex.
func (m *RecursiveMutex) Unlock() {
	if m.owner.Load() != goid.Get() {
		panic(`threadsync: unlock of RecursiveMutex not owned by the calling goroutine`)
	}
	m.depth--
	if m.depth == 0 {
		m.owner.Store(0)
		m.mu.Unlock()
	}
}

// Depth returns the nesting depth held by the calling goroutine, which is 0
// if it does not own the mutex. Intended for assertions and diagnostics.
func (m *RecursiveMutex) Depth() int {
	if m.owner.Load() != goid.Get() {
		return 0
	}
	return m.depth
}

// Close releases the mutex. It fails with ErrMutexHeld if any goroutine,
// including the caller, currently owns it, and with ErrClosed if it was
// already closed. Any subsequent Lock or TryLock panics.
func (m *RecursiveMutex) Close() error {
	if !m.mu.TryLock() {
		return ErrMutexHeld
	}
	defer m.mu.Unlock()

	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	m.logger.Debug().
		Str(`mutex`, m.name).
		Log(`mutex closed`)

	return nil
}

func (m *RecursiveMutex) checkOpen(op string) {
	if m.closed.Load() {
		panic(&AcquisitionError{Op: op, Name: m.name, Cause: ErrClosed})
	}
}

// checkAcquired must be called with mu held, before taking ownership. A
// blocked Lock may pass checkOpen, then acquire mu after Close has returned.
func (m *RecursiveMutex) checkAcquired(op string) {
	if m.closed.Load() {
		m.mu.Unlock()
		panic(&AcquisitionError{Op: op, Name: m.name, Cause: ErrClosed})
	}
}
