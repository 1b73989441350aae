package slab

import "unsafe"

// Carve allocates zeroed space for one T from alloc's arena and returns a
// pointer into it, so that bookkeeping records backed by T never compete
// with the intercepted allocator for Go heap space (spec.md §4.1/§4.5's
// "no allocation on the hot path" means no allocation that would itself
// show up as a sample). T must hold no pointers into the Go heap: the
// returned memory lives outside the garbage collector's reach for as long
// as alloc itself is not closed.
func Carve[T any](alloc *Allocator) (*T, error) {
	var zero T
	buf, err := alloc.Alloc(int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(buf))), nil
}
