// Package threadsync provides a small set of portable concurrency
// primitives, intended as building blocks for schedulers, pipelines, and
// similar higher-level code:
//
//   - [RecursiveMutex]: a mutex the owning goroutine may re-acquire
//   - [Thread]: runs the entry point of a [Runnable] exactly once, on a
//     goroutine wired to its own OS thread
//   - [Event]: a manual-reset event, with blocking and timed waits that
//     report an explicit [WaitResult]
//   - [AtomicAdd]: fetch-and-add, always returning the pre-add value
//
// [Milliseconds] and [Sleep] provide a monotonic millisecond clock, and a
// millisecond sleep, for polling and backoff.
//
// # Ownership
//
// Each primitive is owned by the party that constructed it, and is released
// using its Close method. Close reports misuse (e.g. a held mutex, or a
// still-running thread) as an error, rather than leaving it undefined.
//
// # Platform Support
//
// OS thread ids are available on Linux (gettid) and Windows
// (GetCurrentThreadId). [WithCPUAffinity] is honored on Linux only.
// [Thread.Suspend] is cooperative on every platform, see [Checkpoint].
//
// # Logging
//
// Primitives log via [github.com/joeycumines/logiface], either the logger
// given by [WithLogger], or the package logger, see [SetLogger]. Logging is
// disabled by default.
//
// # Usage
//
//	done, err := threadsync.NewEvent()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	done.Reset() // events start signaled
//
//	var ready bool
//	thread, err := threadsync.NewThread(threadsync.RunnableFunc(func() {
//	    ready = true
//	    done.Set()
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if done.Wait(threadsync.Infinite) == threadsync.Signaled {
//	    fmt.Println(ready) // true
//	}
package threadsync
