package atomic_count

import (
	"sync/atomic"
)

// AtomicCount is a counter shared between workers without locking.
// Writers use compare-and-swap so that a lost race is reported to the caller
// rather than silently retried; AtomicIncrement is the retrying convenience.
type AtomicCount struct {
	val uint64
}

// NewAtomicCount returns a counter starting at val.
func NewAtomicCount(val uint64) *AtomicCount {
	return &AtomicCount{
		val: val,
	}
}

// Atomically read the count.
func (ac *AtomicCount) AtomicRead() uint64 {
	return atomic.LoadUint64(&ac.val)
}

// Atomically add to the count. If the value changed between the read and the swap,
// nothing is written and succeeded is false.
func (ac *AtomicCount) AtomicAdd(addend uint64) (newVal uint64, succeeded bool) {
	old := ac.AtomicRead()
	newVal = old + addend
	succeeded = atomic.CompareAndSwapUint64(&ac.val, old, newVal)
	return
}

// AtomicIncrement adds one, retrying until the swap lands, and returns the new count.
func (ac *AtomicCount) AtomicIncrement() uint64 {
	for {
		if newVal, ok := ac.AtomicAdd(1); ok {
			return newVal
		}
	}
}
