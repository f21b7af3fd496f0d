//go:build !linux && !darwin

package threadsync

func monotonicMillis() uint64 {
	return runtimeMillis()
}
