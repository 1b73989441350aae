package slab

import (
	"sync"
	"unsafe"
)

// Interner stores strings in slab-allocated buffers instead of the Go
// heap, so that resolved symbol names — spec.md §3's "Strings come from a
// dedicated slab pool and are owned by the pool; records hold stable
// references" — never compete with the intercepted allocator for space.
// Its zero value is ready for use.
type Interner struct {
	mu    sync.Mutex
	alloc Allocator
}

// Intern copies s into a slab-owned buffer and returns a string backed by
// it. The returned string is valid for the Interner's lifetime: like
// every other record this profiler tracks, it is owned by the registry
// for the process lifetime and never individually freed.
func (in *Interner) Intern(s string) string {
	if s == "" {
		return ""
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	buf, err := in.alloc.Alloc(len(s))
	if err != nil {
		return s
	}
	copy(buf, s)
	return unsafe.String(unsafe.SliceData(buf), len(buf))
}

// Close releases every buffer the interner has carved. Callers must not
// use any string returned by Intern after calling Close.
func (in *Interner) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.alloc.Close()
}
