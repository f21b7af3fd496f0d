package threadsync

import (
	"time"
)

// origin of the portable clock, see runtimeMillis
var clockOrigin = time.Now()

// Milliseconds returns a monotonic time in milliseconds, relative to an
// arbitrary origin fixed for the life of the process. It is intended for
// polling and backoff, not for wall-clock time.
func Milliseconds() uint64 {
	return monotonicMillis()
}

// Sleep pauses the calling goroutine for at least ms milliseconds.
func Sleep(ms uint32) {
	time.Sleep(timeoutDuration(ms))
}

// runtimeMillis uses the monotonic reading carried by time.Time.
func runtimeMillis() uint64 {
	return uint64(time.Since(clockOrigin) / time.Millisecond)
}
