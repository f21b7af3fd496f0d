//go:build !linux && !windows

package threadsync

// osThreadID is unsupported, always returning 0.
func osThreadID() int {
	return 0
}

// setAffinity is unsupported on this platform.
func setAffinity(cpus []int) error {
	if len(cpus) == 0 {
		return nil
	}
	return ErrAffinityUnsupported
}
