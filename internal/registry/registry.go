// Package registry implements the allocation registry: the authoritative
// index of live and recently-freed allocations that the sample attributor
// resolves sampled addresses against. It is backed by the AVL index in
// internal/avl, keyed by start address, with a bucket per key to support
// address reuse over a process's lifetime.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/numamma/numamma-go/internal/avl"
	"github.com/numamma/numamma-go/internal/slab"
	"github.com/numamma/numamma-go/pkg/types"
)

// Registry tracks every live and past Allocation. It is safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	live *avl.Tree[*Allocation]
	past *avl.Tree[*Allocation]

	nextID uint64

	ranksMu sync.Mutex
	ranks   map[any]int

	symbols    slab.Interner
	bucketPool slab.Pool
	buckets    *slab.Allocator
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{
		live:  avl.New[*Allocation](),
		past:  avl.New[*Allocation](),
		ranks: make(map[any]int),
	}
	r.buckets = r.bucketPool.Lease()
	return r
}

// Close releases the registry's slab-backed resources: the symbol
// interner and the page-bucket arena. Every Allocation's page buckets and
// resolved symbol are invalid after Close returns; callers must finish
// reporting before calling it.
func (r *Registry) Close() error {
	symErr := r.symbols.Close()
	r.bucketPool.Release(r.buckets)
	r.buckets = nil
	return symErr
}

// InternSymbol copies name into the registry's slab-backed string pool
// and returns the interned copy, per spec.md §3's ownership rule for
// resolved symbol names.
func (r *Registry) InternSymbol(name string) string {
	return r.symbols.Intern(name)
}

// ThreadRank assigns (or returns the previously assigned) dense integer
// rank for key, the caller's own stable identifier for a logical sampling
// worker. Go has no portable OS-thread-id equivalent, so this stands in
// for the original's pthread-indexed rank table.
func (r *Registry) ThreadRank(key any) int {
	r.ranksMu.Lock()
	defer r.ranksMu.Unlock()
	if rank, ok := r.ranks[key]; ok {
		return rank
	}
	rank := len(r.ranks)
	r.ranks[key] = rank
	return rank
}

// RegisterRegion creates and indexes a new live Allocation. Registering a
// region at an address still live is a programming error: callers must
// MarkFreed (or UpdateAddress away from) an existing live region before
// reusing its address.
func (r *Registry) RegisterRegion(kind types.AllocationKind, start types.Address, size types.Bytes, now types.LogicalTime, callerIPs []uintptr) *Allocation {
	return r.RegisterRegionEager(kind, start, size, now, callerIPs, 0)
}

// RegisterRegionEager is RegisterRegion with an explicit eager-thread
// count: when threads > 0, per-thread page-bucket lists are preallocated
// for ranks 0..threads-1 at registration time instead of lazily on first
// access, matching spec.md §4.3's online_analysis side effect.
func (r *Registry) RegisterRegionEager(kind types.AllocationKind, start types.Address, size types.Bytes, now types.LogicalTime, callerIPs []uintptr, threads int) *Allocation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := findLive(r.live, start); ok {
		panic("registry: RegisterRegion called on an address still live")
	}

	a := &Allocation{
		ID:          atomic.AddUint64(&r.nextID, 1),
		Kind:        kind,
		Start:       start,
		Initial:     size,
		Current:     size,
		Lifetime:    types.Window{Start: now},
		CallerIPs:   callerIPs,
		bucketAlloc: r.buckets,
	}
	a.Preallocate(threads)
	r.live.Insert(uint64(start), a)
	return a
}

// UpdateAddress moves a live allocation to a new address, as happens on
// realloc-style buffer moves. It panics if oldAddr is not live.
func (r *Registry) UpdateAddress(oldAddr, newAddr types.Address, newSize types.Bytes) *Allocation {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := findLive(r.live, oldAddr)
	if !ok {
		panic("registry: UpdateAddress called on an address not live")
	}
	r.live.RemoveValue(uint64(a.Start), func(v *Allocation) bool { return v == a })
	a.Start = newAddr
	a.Current = newSize
	r.live.Insert(uint64(newAddr), a)
	return a
}

// MarkFreed closes a live allocation's lifetime window and moves it from
// the live index to the past index. It panics if addr is not live: the
// caller (the ingest API) is expected to never report a free for an
// address it never reported an allocation for.
func (r *Registry) MarkFreed(addr types.Address, now types.LogicalTime) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := findLive(r.live, addr)
	if !ok {
		panic("registry: MarkFreed called on an address not live")
	}
	r.live.RemoveValue(uint64(a.Start), func(v *Allocation) bool { return v == a })
	a.Lifetime.End = now
	if a.Lifetime.End == 0 {
		a.Lifetime.End = now + 1
	}
	r.past.Insert(uint64(a.Start), a)
}

// FindLiveByAddress returns the live allocation containing addr, if any.
// It uses the floor of the live index and confirms containment, since
// addr need not equal a region's start address.
func (r *Registry) FindLiveByAddress(addr types.Address) (*Allocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return findLive(r.live, addr)
}

// FindPastByAddressAndWindow searches the past index for allocations that
// once occupied addr and whose lifetime window overlaps the query window.
// Per the union-of-overlap rule, when multiple past records at the same
// address overlap the query window, every one of them is folded into the
// result rather than only the most recently freed.
func (r *Registry) FindPastByAddressAndWindow(addr types.Address, query types.Window) ([]*Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, bucket, ok := r.past.Floor(uint64(addr))
	if !ok {
		return nil, ErrNotFound
	}
	var matches []*Allocation
	for _, a := range bucket {
		if a.Contains(addr) && a.Lifetime.Overlaps(query) {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoOverlap
	}
	return matches, nil
}

// Live returns every currently live allocation, in address order.
func (r *Registry) Live() []*Allocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.live)
}

// Past returns every freed allocation still retained for window lookups,
// in address order.
func (r *Registry) Past() []*Allocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return collect(r.past)
}

func collect(t *avl.Tree[*Allocation]) []*Allocation {
	var out []*Allocation
	t.Walk(func(_ uint64, bucket []*Allocation) {
		out = append(out, bucket...)
	})
	return out
}

func findLive(t *avl.Tree[*Allocation], addr types.Address) (*Allocation, bool) {
	_, bucket, ok := t.Floor(uint64(addr))
	if !ok {
		return nil, false
	}
	for _, a := range bucket {
		if a.Contains(addr) {
			return a, true
		}
	}
	return nil, false
}
