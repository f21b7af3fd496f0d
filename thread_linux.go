//go:build linux

package threadsync

import (
	"golang.org/x/sys/unix"
)

// osThreadID returns the kernel thread id of the calling thread.
func osThreadID() int {
	return unix.Gettid()
}

// setAffinity pins the calling OS thread to cpus, if any are given.
func setAffinity(cpus []int) error {
	if len(cpus) == 0 {
		return nil
	}
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	if set.Count() == 0 {
		return unix.EINVAL
	}
	return unix.SchedSetaffinity(0, &set)
}
