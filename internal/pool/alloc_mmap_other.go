//go:build !linux

package pool

// NewMmapAllocator falls back to the heap backend on platforms where the
// anonymous-mmap path is not wired up.
func NewMmapAllocator(touch bool) Allocator {
	return NewHeapAllocator(touch)
}
