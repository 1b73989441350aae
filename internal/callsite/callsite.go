// Package callsite implements the call-site aggregator: folding
// allocation records sharing an allocation size and call stack into a
// single cumulative entry, and ranking entries by read weight for
// reporting.
package callsite

import (
	"fmt"
	"slices"
	"strings"

	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

// HeatCell is one (page, thread) cell of a call site's heat table: the
// total read+write sample count landing on that page from that thread.
type HeatCell struct {
	Page   uint64
	Thread int
	Count  int
}

// Site is one distinct (allocation size, call stack) fingerprint and its
// cumulative counters, by access kind, across every allocation sharing it.
type Site struct {
	ID           int
	Fingerprint  string
	Size         types.Bytes
	CallerIPs    []uintptr
	Symbol       string
	Kind         types.AllocationKind
	NAllocations int
	ByAccess     [types.AccessKindCount]registry.MemCounters

	heat map[[2]uint64]int // key: {thread, page}
	seen int               // insertion order, for stable tie-break ranking
}

// ReadWeight returns the total weight folded across read samples.
func (s *Site) ReadWeight() uint64 { return s.ByAccess[types.AccessRead].TotalWeight() }

// WriteWeight returns the total weight folded across write samples.
func (s *Site) WriteWeight() uint64 { return s.ByAccess[types.AccessWrite].TotalWeight() }

// ReadCount returns the total number of read samples folded into the site.
func (s *Site) ReadCount() int { return s.ByAccess[types.AccessRead].TotalCount() }

// WriteCount returns the total number of write samples folded into the site.
func (s *Site) WriteCount() int { return s.ByAccess[types.AccessWrite].TotalCount() }

// Heat returns the site's per-page, per-thread sample counts, sorted by
// page then thread rank, for the per-site heat-table dump spec.md §4.6
// names.
func (s *Site) Heat() []HeatCell {
	out := make([]HeatCell, 0, len(s.heat))
	for k, count := range s.heat {
		out = append(out, HeatCell{Thread: int(k[0]), Page: k[1], Count: count})
	}
	slices.SortFunc(out, func(a, b HeatCell) int {
		if a.Page != b.Page {
			if a.Page < b.Page {
				return -1
			}
			return 1
		}
		return a.Thread - b.Thread
	})
	return out
}

// Aggregator folds allocations into Sites keyed by fingerprint.
type Aggregator struct {
	sites  map[string]*Site
	order  int
	nextID int
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{sites: make(map[string]*Site)}
}

// Fingerprint derives a call-site key from an allocation size and call
// stack, skipping the innermost three frames (profiler-internal code: the
// ingest entry point, the recorder, and the allocator wrapper), matching
// the original's skip-3 convention. If three or fewer frames are
// available (nothing would remain after the skip), the caller instruction
// pointer alone is used instead.
func Fingerprint(size types.Bytes, callerIPs []uintptr) string {
	if len(callerIPs) <= 3 {
		if len(callerIPs) == 0 {
			return fmt.Sprintf("%d:0", size)
		}
		return fmt.Sprintf("%d:%x", size, callerIPs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", size)
	for _, ip := range callerIPs[3:] {
		fmt.Fprintf(&b, "%x,", ip)
	}
	return b.String()
}

// Record folds one allocation's accumulated page-bucket counters into its
// call site, creating the site on first sight. Each allocation must be
// recorded at most once across the aggregator's lifetime (the session
// records every allocation exactly once, at shutdown); recording the same
// allocation twice would double its contribution, since page-bucket
// counters are cumulative snapshots, not deltas.
func (ag *Aggregator) Record(alloc *registry.Allocation, size types.Bytes) {
	fp := Fingerprint(size, alloc.CallerIPs)
	s, ok := ag.sites[fp]
	if !ok {
		s = &Site{ID: ag.nextID, Fingerprint: fp, Size: size, CallerIPs: alloc.CallerIPs, Kind: alloc.Kind, seen: ag.order, heat: make(map[[2]uint64]int)}
		if sym, known := alloc.Symbol(); known {
			s.Symbol = sym
		}
		ag.nextID++
		ag.order++
		ag.sites[fp] = s
	}
	s.NAllocations++
	for rank, pages := range alloc.PerThread() {
		for _, pb := range pages {
			for kind, c := range pb.ByAccess {
				s.ByAccess[kind].Fold(c)
			}
			count := pb.ByAccess[types.AccessRead].TotalCount() + pb.ByAccess[types.AccessWrite].TotalCount()
			if count == 0 {
				continue
			}
			s.heat[[2]uint64{uint64(rank), pb.PageIndex}] += count
		}
	}
}

// Sites returns every recorded call site, ranked by descending read
// weight, then descending write weight, then first-seen order, matching
// the original's sort-by-read-weight convention with a deterministic
// tie-break for otherwise-equal sites.
func (ag *Aggregator) Sites() []*Site {
	out := make([]*Site, 0, len(ag.sites))
	for _, s := range ag.sites {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Site) int {
		if aw, bw := a.ReadWeight(), b.ReadWeight(); aw != bw {
			if aw > bw {
				return -1
			}
			return 1
		}
		if aw, bw := a.WriteWeight(), b.WriteWeight(); aw != bw {
			if aw > bw {
				return -1
			}
			return 1
		}
		return a.seen - b.seen
	})
	return out
}
