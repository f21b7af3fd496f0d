package threadsync

import (
	"sync/atomic"
	"unsafe"
)

// Integer is the set of types supported by AtomicAdd and AtomicLoad.
type Integer interface {
	int | int32 | int64 | uint32 | uint64 | uintptr
}

// AtomicAdd atomically adds delta to *addr, with respect to all other atomic
// operations on the same location, and returns the value *addr held before
// the add (fetch-and-add). Unsigned types wrap on overflow, and a negative
// delta may be expressed as its two's complement, e.g. ^uint32(0) for -1.
// An int is treated as int32 or int64, per the platform word size.
func AtomicAdd[T Integer](addr *T, delta T) T {
	switch p := any(addr).(type) {
	case *int:
		if unsafe.Sizeof(*p) == 8 {
			d := int64(delta)
			return T(atomic.AddInt64((*int64)(unsafe.Pointer(p)), d) - d)
		}
		d := int32(delta)
		return T(atomic.AddInt32((*int32)(unsafe.Pointer(p)), d) - d)
	case *int32:
		d := int32(delta)
		return T(atomic.AddInt32(p, d) - d)
	case *int64:
		d := int64(delta)
		return T(atomic.AddInt64(p, d) - d)
	case *uint32:
		d := uint32(delta)
		return T(atomic.AddUint32(p, d) - d)
	case *uint64:
		d := uint64(delta)
		return T(atomic.AddUint64(p, d) - d)
	case *uintptr:
		d := uintptr(delta)
		return T(atomic.AddUintptr(p, d) - d)
	default:
		panic(`threadsync: unreachable`)
	}
}

// AtomicLoad atomically loads *addr, e.g. a counter maintained by AtomicAdd.
func AtomicLoad[T Integer](addr *T) T {
	switch p := any(addr).(type) {
	case *int:
		if unsafe.Sizeof(*p) == 8 {
			return T(atomic.LoadInt64((*int64)(unsafe.Pointer(p))))
		}
		return T(atomic.LoadInt32((*int32)(unsafe.Pointer(p))))
	case *int32:
		return T(atomic.LoadInt32(p))
	case *int64:
		return T(atomic.LoadInt64(p))
	case *uint32:
		return T(atomic.LoadUint32(p))
	case *uint64:
		return T(atomic.LoadUint64(p))
	case *uintptr:
		return T(atomic.LoadUintptr(p))
	default:
		panic(`threadsync: unreachable`)
	}
}
