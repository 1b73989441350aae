package registry

import (
	"github.com/numamma/numamma-go/internal/slab"
	"github.com/numamma/numamma-go/pkg/types"
)

// Allocation is a single tracked memory region: a heap allocation, a
// thread stack, or a global/TLS variable discovered from the process
// image. It is the unit the sample attributor resolves addresses against.
type Allocation struct {
	ID          uint64
	Kind        types.AllocationKind
	Start       types.Address
	Initial     types.Bytes
	Current     types.Bytes
	Lifetime    types.Window
	CallerIPs   []uintptr
	ThreadKey   any
	perThread   map[int]*threadPages
	symbol      string
	symbolKnown bool

	// bucketAlloc carves this allocation's PageBuckets from slab memory
	// instead of the Go heap (spec.md §4.1/§4.5's hot-path allocation
	// ban). It is nil for Allocations built directly by tests rather than
	// through Registry.RegisterRegion, which falls back to a plain heap
	// allocation.
	bucketAlloc *slab.Allocator
}

// End returns the address one past the end of the region.
func (a *Allocation) End() types.Address {
	return types.Address(uint64(a.Start) + uint64(a.Current))
}

// Contains reports whether addr falls within [Start, End).
func (a *Allocation) Contains(addr types.Address) bool {
	return addr.InRange(a.Start, a.Current)
}

// PageBucketFor returns the page bucket covering addr for the given
// thread rank, creating it on first access. The page index is relative to
// the allocation's own start address, not the process-wide page number:
// two different allocations each see page 0 at their own first byte,
// matching mem_analyzer.c's per-block page indexing.
func (a *Allocation) PageBucketFor(threadRank int, addr types.Address) *PageBucket {
	if a.perThread == nil {
		a.perThread = make(map[int]*threadPages)
	}
	tp := a.perThread[threadRank]
	if tp == nil {
		tp = &threadPages{}
		a.perThread[threadRank] = tp
	}
	pageIndex := uint64(addr-a.Start) >> 12
	return tp.find(pageIndex, a.bucketAlloc)
}

// Pages returns every page bucket recorded for the allocation, across all
// thread ranks, for reporting.
func (a *Allocation) Pages() []*PageBucket {
	var out []*PageBucket
	for _, tp := range a.perThread {
		out = append(out, tp.pages...)
	}
	return out
}

// PerThread returns, for each thread rank that has recorded page buckets,
// its buckets in ascending page-index order. Used by the call-site
// aggregator to build the per-page, per-thread heat table spec.md §4.6
// names.
func (a *Allocation) PerThread() map[int][]*PageBucket {
	out := make(map[int][]*PageBucket, len(a.perThread))
	for rank, tp := range a.perThread {
		out[rank] = tp.pages
	}
	return out
}

// Preallocate eagerly creates empty per-thread bucket lists for thread
// ranks 0..threads-1, the Go analogue of spec.md §4.3's online_analysis
// side effect ("eagerly allocates and zeroes per-thread page-bucket
// arrays sized to MAX_THREADS"). It is a no-op for threads <= 0.
func (a *Allocation) Preallocate(threads int) {
	if threads <= 0 {
		return
	}
	if a.perThread == nil {
		a.perThread = make(map[int]*threadPages, threads)
	}
	for rank := 0; rank < threads; rank++ {
		if a.perThread[rank] == nil {
			a.perThread[rank] = &threadPages{}
		}
	}
}

// CallerIP returns the program counter at the allocation site (the first
// user frame above the interceptor), or 0 if no call stack was captured
// (pre-existing regions discovered by the image scanner).
func (a *Allocation) CallerIP() uintptr {
	if len(a.CallerIPs) == 0 {
		return 0
	}
	return a.CallerIPs[0]
}

// Symbol returns the resolved symbol name and whether one has been set.
// Symbol resolution is lazy: the registry never resolves it itself, it is
// filled in on demand by a Symbolizer (see internal/symbolize).
func (a *Allocation) Symbol() (string, bool) { return a.symbol, a.symbolKnown }

// SetSymbol records a resolved symbol name for the allocation.
func (a *Allocation) SetSymbol(name string) {
	a.symbol = name
	a.symbolKnown = true
}
