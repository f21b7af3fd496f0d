// Package goid identifies the calling goroutine.
//
// Ids are read from the runtime via github.com/petermattis/goid. At init the
// result is checked against the header line of a stack trace
// ("goroutine 123 [running]:"), and if they disagree (e.g. a toolchain the
// library doesn't know the layout of) the slower stack parse is used instead.
package goid

import (
	"runtime"

	"github.com/petermattis/goid"
)

var get = selectGetter(goid.Get)

// Get returns the id of the calling goroutine. Ids are positive, and unique
// among live goroutines.
func Get() int64 {
	return get()
}

// selectGetter returns fast if it agrees with fromStack, on both the calling
// goroutine and a new one, otherwise fromStack.
func selectGetter(fast func() int64) func() int64 {
	if fast == nil || !agrees(fast) {
		return fromStack
	}
	return fast
}

func agrees(fast func() int64) bool {
	if id := fromStack(); id == 0 || fast() != id {
		return false
	}
	result := make(chan bool, 1)
	go func() {
		id := fromStack()
		result <- id != 0 && fast() == id
	}()
	return <-result
}

// fromStack parses the id from the caller's stack trace header.
func fromStack() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parse(buf[:n])
}

// parse extracts the id from a stack trace header, returning 0 if the input
// is malformed.
func parse(b []byte) int64 {
	const prefix = "goroutine "
	if len(b) <= len(prefix) || string(b[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, c := range b[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
