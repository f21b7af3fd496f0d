package threadsync

import (
	"bytes"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// checkNumGoroutines returns a func that fails the test if, within timeout,
// the number of goroutines doesn't return to (at most) the number at the
// time checkNumGoroutines was called. Usage:
//
//	defer checkNumGoroutines(time.Second)(t)
func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			after := runtime.NumGoroutine()
			if after <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`goroutine leak: %d before, %d after`, before, after)
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for use by concurrent writers, as log
// events may be written by any goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.String()
}

// newTestLogger writes JSON lines to w, without timestamps.
func newTestLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

// tryLockElsewhere attempts TryLock from another goroutine, unlocking again
// on success, and reports the result. It fails the test if TryLock blocks.
func tryLockElsewhere(t *testing.T, m *RecursiveMutex) bool {
	t.Helper()
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
		return ok
	case <-time.After(time.Second * 5):
		t.Fatal(`TryLock blocked`)
		return false
	}
}
