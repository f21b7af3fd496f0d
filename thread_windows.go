//go:build windows

package threadsync

import "golang.org/x/sys/windows"

// osThreadID returns the id of the calling Win32 thread.
func osThreadID() int {
	return int(windows.GetCurrentThreadId())
}

// setAffinity is unsupported on Windows.
func setAffinity(cpus []int) error {
	if len(cpus) == 0 {
		return nil
	}
	return ErrAffinityUnsupported
}
