package threadsync

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-threadsync/internal/goid"
	"github.com/joeycumines/logiface"
)

type (
	// Runnable is the execution target of a Thread. Run is its entry point,
	// and is called exactly once, with no arguments.
	Runnable interface {
		Run()
	}

	// RunnableFunc adapts an ordinary function to Runnable.
	RunnableFunc func()

	// Thread runs the entry point of a Runnable, on its own goroutine, which
	// by default is wired to a dedicated OS thread for the duration (see
	// WithLockOSThread).
	//
	// Execution starts as part of NewThread. Completion may be observed via
	// Done, Wait or Err, and Close must only be called once the entry point
	// has returned.
	Thread struct {
		target Runnable
		logger *logiface.Logger[logiface.Event]
		name   string
		id     uint64
		// closed after the entry point returns, err is set prior
		done chan struct{}
		err  error

		osThreadID atomic.Int64
		closed     atomic.Bool

		suspendMu sync.Mutex
		resumed   *sync.Cond
		suspended bool
	}
)

var (
	threadSeq atomic.Uint64

	// goroutine id -> *Thread, while the entry point runs
	runningThreads sync.Map
)

// Run calls f.
func (f RunnableFunc) Run() { f() }

// NewThread starts a new Thread, which calls target.Run exactly once.
//
// A *ThreadCreationError is returned if the execution context could not be
// set up (e.g. nil target, invalid options, or failure to apply
// WithCPUAffinity), in which case target.Run is never called.
func NewThread(target Runnable, opts ...Option) (*Thread, error) {
	cfg, err := resolveOptions(`thread`, opts)
	if err != nil {
		return nil, &ThreadCreationError{Cause: err}
	}
	if f, ok := target.(RunnableFunc); target == nil || (ok && f == nil) {
		return nil, &ThreadCreationError{Name: cfg.name, Cause: ErrNilTarget}
	}
	if len(cfg.cpus) != 0 && !cfg.lockOSThread {
		return nil, &ThreadCreationError{
			Name:  cfg.name,
			Cause: fmt.Errorf("%w: cpu affinity requires a locked OS thread", ErrInvalidOption),
		}
	}

	t := &Thread{
		target: target,
		logger: cfg.logger,
		name:   cfg.name,
		id:     threadSeq.Add(1),
		done:   make(chan struct{}),
	}
	t.resumed = sync.NewCond(&t.suspendMu)

	started := make(chan error, 1)
	go t.run(cfg, started)
	if err := <-started; err != nil {
		return nil, &ThreadCreationError{Name: t.name, Cause: err}
	}

	return t, nil
}

func (t *Thread) run(cfg *options, started chan<- error) {
	if cfg.lockOSThread {
		// never unlocked, the OS thread exits with this goroutine, which
		// also discards any affinity applied below
		runtime.LockOSThread()
	}

	if err := setAffinity(cfg.cpus); err != nil {
		if !errors.Is(err, ErrAffinityUnsupported) {
			started <- err
			return
		}
		t.logger.Notice().
			Str(`thread`, t.name).
			Err(err).
			Log(`cpu affinity ignored`)
	}

	t.osThreadID.Store(int64(osThreadID()))

	gid := goid.Get()
	runningThreads.Store(gid, t)

	defer func() {
		if r := recover(); r != nil {
			t.err = &PanicError{Value: r, Stack: debug.Stack()}
			t.logger.Err().
				Str(`thread`, t.name).
				Uint64(`id`, t.id).
				Err(t.err).
				Log(`thread entry point panicked`)
		}
		runningThreads.Delete(gid)
		close(t.done)
	}()

	t.logger.Debug().
		Str(`thread`, t.name).
		Uint64(`id`, t.id).
		Int64(`tid`, t.osThreadID.Load()).
		Log(`thread started`)

	started <- nil

	t.target.Run()

	t.logger.Debug().
		Str(`thread`, t.name).
		Uint64(`id`, t.id).
		Log(`thread finished`)
}

// ID returns a process-unique identifier, assigned in creation order.
func (t *Thread) ID() uint64 {
	return t.id
}

// Name returns the name of the thread, see WithName.
func (t *Thread) Name() string {
	return t.name
}

// OSThreadID returns the platform thread id the entry point was started on,
// or 0 if the platform doesn't expose one. Without WithLockOSThread, the
// entry point may migrate to other OS threads.
func (t *Thread) OSThreadID() int {
	return int(t.osThreadID.Load())
}

// Done returns a channel that is closed once the entry point has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the entry point has returned, or ctx is done, returning
// Err in the former case, and the context's error in the latter.
func (t *Thread) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	default:
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns a *PanicError if the entry point panicked. It returns nil
// while the entry point is still running, or if it returned normally.
func (t *Thread) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Suspend requests that the thread pause. This is best-effort: it only takes
// effect when the entry point calls Checkpoint, and is otherwise a no-op.
// It must not be relied upon for correctness.
func (t *Thread) Suspend() {
	t.suspendMu.Lock()
	t.suspended = true
	t.suspendMu.Unlock()
}

// Resume reverses Suspend, releasing the entry point if it is paused in
// Checkpoint.
func (t *Thread) Resume() {
	t.suspendMu.Lock()
	t.suspended = false
	t.resumed.Broadcast()
	t.suspendMu.Unlock()
}

// Suspended reports whether a Suspend is in effect.
func (t *Thread) Suspended() bool {
	t.suspendMu.Lock()
	defer t.suspendMu.Unlock()
	return t.suspended
}

// Close releases the thread. It returns ErrThreadRunning without side
// effects if the entry point has not yet returned, and ErrClosed if it was
// already closed. Close does not stop or join the entry point, callers must
// wait for completion first, e.g. using Wait.
func (t *Thread) Close() error {
	select {
	case <-t.done:
	default:
		return ErrThreadRunning
	}
	if !t.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

func (t *Thread) checkpoint() {
	t.suspendMu.Lock()
	defer t.suspendMu.Unlock()
	for t.suspended {
		t.resumed.Wait()
	}
}

// Current returns the Thread whose entry point is running on the calling
// goroutine, or nil. Goroutines started by an entry point are not considered
// part of its Thread.
func Current() *Thread {
	if v, ok := runningThreads.Load(goid.Get()); ok {
		return v.(*Thread)
	}
	return nil
}

// Checkpoint blocks while the current Thread (see Current) is suspended.
// Entry points that support Thread.Suspend should call it periodically. It
// returns immediately when called outside of any Thread.
func Checkpoint() {
	if t := Current(); t != nil {
		t.checkpoint()
	}
}
