package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-threadsync"
	"github.com/joeycumines/logiface"
	"golang.org/x/sync/errgroup"
)

type (
	property struct {
		name string
		run  func(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error
	}
)

var properties = [...]property{
	{`mutex_nesting`, checkMutexNesting},
	{`trylock_contended`, checkTryLockContended},
	{`flag_then_signal`, checkFlagThenSignal},
	{`event_waits`, checkEventWaits},
	{`reset_then_timeout`, checkResetThenTimeout},
	{`atomic_add`, checkAtomicAdd},
}

func propertyByName(name string) (property, bool) {
	for _, p := range properties {
		if p.name == name {
			return p, true
		}
	}
	return property{}, false
}

// selectProperties returns the named properties, or all of them.
func selectProperties(names []string) []property {
	if len(names) == 0 {
		return properties[:]
	}
	selected := make([]property, 0, len(names))
	for _, name := range names {
		if p, ok := propertyByName(name); ok {
			selected = append(selected, p)
		}
	}
	return selected
}

// tryLockElsewhere attempts TryLock from another goroutine, unlocking on
// success.
func tryLockElsewhere(ctx context.Context, m *threadsync.RecursiveMutex) (bool, error) {
	result := make(chan bool, 1)
	go func() {
		ok := m.TryLock()
		if ok {
			m.Unlock()
		}
		result <- ok
	}()
	select {
	case ok := <-result:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func waitAndClose(ctx context.Context, th *threadsync.Thread) error {
	if err := th.Wait(ctx); err != nil {
		return err
	}
	return th.Close()
}

func checkMutexNesting(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	m, err := threadsync.NewRecursiveMutex(
		threadsync.WithName(`nesting`),
		threadsync.WithContentionThreshold(time.Millisecond*100),
	)
	if err != nil {
		return err
	}

	for range cfg.Nesting {
		m.Lock()
	}
	if depth := m.Depth(); depth != cfg.Nesting {
		return fmt.Errorf("depth %d after %d locks", depth, cfg.Nesting)
	}

	for depth := cfg.Nesting; depth > 0; depth-- {
		ok, err := tryLockElsewhere(ctx, m)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("acquired by another goroutine at depth %d", depth)
		}
		m.Unlock()
	}

	if ok, err := tryLockElsewhere(ctx, m); err != nil {
		return err
	} else if !ok {
		return errors.New("not released after the final unlock")
	}

	logger.Debug().
		Int(`nesting`, cfg.Nesting).
		Log(`mutex nesting verified`)

	return m.Close()
}

func checkTryLockContended(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	m, err := threadsync.NewRecursiveMutex(threadsync.WithName(`contended`))
	if err != nil {
		return err
	}

	locked, err := threadsync.NewEvent(threadsync.WithName(`contended-locked`))
	if err != nil {
		return err
	}
	defer locked.Close()
	locked.Reset()

	release, err := threadsync.NewEvent(threadsync.WithName(`contended-release`))
	if err != nil {
		return err
	}
	defer release.Close()
	release.Reset()

	holder, err := threadsync.NewThread(threadsync.RunnableFunc(func() {
		m.Lock()
		defer m.Unlock()
		locked.Set()
		release.Wait(threadsync.Infinite)
	}), threadsync.WithName(`contended-holder`))
	if err != nil {
		return err
	}

	if r, err := locked.WaitContext(ctx); err != nil {
		return err
	} else if r != threadsync.Signaled {
		return fmt.Errorf("holder: unexpected result %s", r)
	}

	start := threadsync.Milliseconds()
	acquired := m.TryLock()
	elapsed := threadsync.Milliseconds() - start
	release.Set()
	if acquired {
		m.Unlock()
		return errors.New("TryLock succeeded while held by another thread")
	}
	if elapsed > 1000 {
		return fmt.Errorf("TryLock blocked for %dms", elapsed)
	}

	if err := waitAndClose(ctx, holder); err != nil {
		return err
	}

	if !m.TryLock() {
		return errors.New("TryLock failed after release")
	}
	m.Unlock()

	return m.Close()
}

func checkFlagThenSignal(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	for i := range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}

		var flag int32
		e, err := threadsync.NewEvent()
		if err != nil {
			return err
		}
		e.Reset()

		th, err := threadsync.NewThread(threadsync.RunnableFunc(func() {
			flag = 1
			e.Set()
		}))
		if err != nil {
			return err
		}

		if r := e.Wait(threadsync.Infinite); r != threadsync.Signaled {
			return fmt.Errorf("iteration %d: unexpected result %s", i, r)
		}
		if flag != 1 {
			return fmt.Errorf("iteration %d: flag not observed after signal", i)
		}

		if err := waitAndClose(ctx, th); err != nil {
			return err
		}
		if err := e.Close(); err != nil {
			return err
		}

		if (i+1)%1000 == 0 {
			logger.Debug().
				Int(`completed`, i+1).
				Log(`flag then signal progress`)
		}
	}
	return nil
}

func checkEventWaits(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	e, err := threadsync.NewEvent(threadsync.WithName(`waits`))
	if err != nil {
		return err
	}
	defer e.Close()
	e.Reset()

	start := threadsync.Milliseconds()
	if r := e.Wait(0); r != threadsync.TimedOut {
		return fmt.Errorf("poll: unexpected result %s", r)
	}
	if elapsed := threadsync.Milliseconds() - start; elapsed > 100 {
		return fmt.Errorf("poll took %dms", elapsed)
	}

	result := make(chan threadsync.WaitResult, 1)
	waiter, err := threadsync.NewThread(threadsync.RunnableFunc(func() {
		result <- e.Wait(threadsync.Infinite)
	}), threadsync.WithName(`waits-waiter`))
	if err != nil {
		return err
	}

	threadsync.Sleep(cfg.TimeoutMs)
	select {
	case r := <-result:
		return fmt.Errorf("infinite wait returned %s before set", r)
	default:
	}

	e.Set()
	if err := waitAndClose(ctx, waiter); err != nil {
		return err
	}
	if r := <-result; r != threadsync.Signaled {
		return fmt.Errorf("infinite wait: unexpected result %s", r)
	}
	return nil
}

func checkResetThenTimeout(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	e, err := threadsync.NewEvent(threadsync.WithName(`timeout`))
	if err != nil {
		return err
	}
	defer e.Close()
	e.Reset()

	start := threadsync.Milliseconds()
	if r := e.Wait(cfg.TimeoutMs); r != threadsync.TimedOut {
		return fmt.Errorf("unexpected result %s", r)
	}
	// the clock truncates to whole milliseconds
	if elapsed := threadsync.Milliseconds() - start; elapsed+1 < uint64(cfg.TimeoutMs) {
		return fmt.Errorf("timed out after %dms, expected at least %dms", elapsed, cfg.TimeoutMs)
	}
	return nil
}

func checkAtomicAdd(ctx context.Context, cfg *config, logger *logiface.Logger[logiface.Event]) error {
	var counter uint64
	g, ctx := errgroup.WithContext(ctx)
	for i := range cfg.Workers {
		g.Go(func() error {
			var err error
			th, e := threadsync.NewThread(threadsync.RunnableFunc(func() {
				var last uint64
				for j := range cfg.Adds {
					prev := threadsync.AtomicAdd(&counter, 1)
					if j != 0 && prev <= last {
						err = fmt.Errorf("worker %d: pre-add value %d after %d", i, prev, last)
						return
					}
					last = prev
				}
			}), threadsync.WithName(fmt.Sprintf("adder-%d", i)))
			if e != nil {
				return e
			}
			if e := waitAndClose(ctx, th); e != nil {
				return e
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	want := uint64(cfg.Workers) * uint64(cfg.Adds)
	if got := threadsync.AtomicLoad(&counter); got != want {
		return fmt.Errorf("counter %d, expected %d", got, want)
	}
	return nil
}
