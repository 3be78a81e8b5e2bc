package pool

import "os"

// Allocator reserves and releases the raw memory backing pool blocks.
// Implementations must tolerate Free being called exactly once per
// successful Alloc.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// heapAllocator allocates blocks on the Go heap. A refused allocation here is
// a runtime throw, not a recoverable error, so very large requests may
// terminate the process; that is accepted for a tool whose purpose is memory
// pressure.
type heapAllocator struct {
	touch bool
}

// NewHeapAllocator creates an allocator backed by the Go heap. When touch is
// set, every page of each block is written so the memory shows up as resident
// rather than as an untouched virtual mapping.
func NewHeapAllocator(touch bool) Allocator {
	return &heapAllocator{touch: touch}
}

func (a *heapAllocator) Alloc(n int) ([]byte, error) {
	b := make([]byte, n)
	if a.touch {
		touchPages(b)
	}
	return b, nil
}

func (a *heapAllocator) Free(b []byte) {
	// Nothing to do; the GC reclaims the block once the pool drops it.
}

// touchPages writes one byte per page to force physical commitment.
func touchPages(b []byte) {
	pageSize := os.Getpagesize()
	for i := 0; i < len(b); i += pageSize {
		b[i] = 1
	}
}
