//go:build linux

package pool

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// mmapAllocator reserves blocks via anonymous private mappings outside the Go
// heap. Unlike the heap backend, a refused reservation comes back as an error
// instead of killing the process, and freed blocks return to the OS
// immediately rather than waiting for the GC.
type mmapAllocator struct {
	touch bool
}

// NewMmapAllocator creates an allocator backed by anonymous mmap.
func NewMmapAllocator(touch bool) Allocator {
	return &mmapAllocator{touch: touch}
}

func (a *mmapAllocator) Alloc(n int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, n,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap of %d bytes: %w", n, err)
	}
	if a.touch {
		touchPages(b)
	}
	return b, nil
}

func (a *mmapAllocator) Free(b []byte) {
	if err := unix.Munmap(b); err != nil {
		slog.Error("failed to unmap block", slog.String("error", err.Error()))
	}
}
