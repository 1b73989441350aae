// Package slab provides a small pool of arena allocators used to carve
// page-bucket and symbol-string memory outside the Go heap, so that the
// profiler's own bookkeeping allocations are never mistaken for the
// allocations it is observing.
package slab

import (
	"sync"

	"modernc.org/memory"
)

// Pool leases *memory.Allocator instances. Its zero value is ready for use.
type Pool struct {
	pool sync.Pool
}

// Lease hands out an allocator for exclusive use by the caller until
// returned via Release. Leases are intended to be held for the lifetime of
// one sampling goroutine, the closest Go analogue of the original's
// per-thread arena.
func (p *Pool) Lease() *Allocator {
	if v := p.pool.Get(); v != nil {
		return v.(*Allocator)
	}
	return &Allocator{}
}

// Release returns a lease to the pool after freeing everything it holds.
func (p *Pool) Release(a *Allocator) {
	_ = a.inner.Close()
	a.inner = memory.Allocator{}
	p.pool.Put(a)
}

// Allocator carves zeroed byte slices from an mmap-backed arena instead of
// the Go heap. Its zero value is ready for use.
type Allocator struct {
	inner memory.Allocator
}

// Alloc returns a zeroed block of n bytes.
func (a *Allocator) Alloc(n int) ([]byte, error) {
	return a.inner.Calloc(n)
}

// Free returns b to the arena. b must have been returned by Alloc on the
// same Allocator.
func (a *Allocator) Free(b []byte) error {
	if b == nil {
		return nil
	}
	return a.inner.Free(b)
}

// Close releases every block still outstanding on this allocator.
func (a *Allocator) Close() error {
	return a.inner.Close()
}
