package registry

import (
	"github.com/numamma/numamma-go/internal/slab"
	"github.com/numamma/numamma-go/pkg/types"
)

// PageBucket holds the read and write counter aggregates for a single
// 4KiB page within an allocation.
type PageBucket struct {
	PageIndex uint64
	ByAccess  [types.AccessKindCount]MemCounters
}

// threadPages is the sorted-by-PageIndex bucket list owned by one thread
// rank, mirroring the original's per-thread sorted block list.
type threadPages struct {
	pages []*PageBucket
}

// find returns the bucket for pageIndex, creating and inserting it in
// sorted position if absent. When alloc is non-nil the new bucket is
// carved from slab memory rather than the Go heap, keeping the hot sample
// path off the allocator the profiler is itself observing; alloc is nil
// only for Allocations built directly by tests, which fall back to a
// plain heap allocation.
func (tp *threadPages) find(pageIndex uint64, alloc *slab.Allocator) *PageBucket {
	lo, hi := 0, len(tp.pages)
	for lo < hi {
		mid := (lo + hi) / 2
		if tp.pages[mid].PageIndex < pageIndex {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(tp.pages) && tp.pages[lo].PageIndex == pageIndex {
		return tp.pages[lo]
	}
	pb := newPageBucket(alloc)
	pb.PageIndex = pageIndex
	tp.pages = append(tp.pages, nil)
	copy(tp.pages[lo+1:], tp.pages[lo:])
	tp.pages[lo] = pb
	return pb
}

func newPageBucket(alloc *slab.Allocator) *PageBucket {
	if alloc != nil {
		if pb, err := slab.Carve[PageBucket](alloc); err == nil {
			return pb
		}
	}
	return &PageBucket{}
}
