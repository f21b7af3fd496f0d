//go:build linux || darwin

package threadsync

import (
	"time"

	"golang.org/x/sys/unix"
)

// monotonicMillis reads CLOCK_MONOTONIC directly.
func monotonicMillis() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return runtimeMillis()
	}
	return uint64(ts.Sec)*1000 + uint64(ts.Nsec)/uint64(time.Millisecond)
}
