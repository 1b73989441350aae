// Package attributor implements the sample attribution pipeline: resolving
// a sampled address against the allocation registry and folding its weight
// into the matching page bucket's counters.
package attributor

import (
	"sync/atomic"

	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

// Attributor resolves samples against a Registry. It is not safe for
// concurrent ProcessBatch calls: callers must ensure exactly one goroutine
// owns a given Attributor at a time, the Go analogue of the original's
// thread-local recursion guard (there is no equivalent of a signal handler
// re-entering arbitrary code across goroutines, so a plain flag suffices).
type Attributor struct {
	reg     *registry.Registry
	entered bool

	unattributed atomic.Int64
}

// New returns an Attributor that resolves samples against reg.
func New(reg *registry.Registry) *Attributor {
	return &Attributor{reg: reg}
}

// Unattributed returns the running count of samples that matched neither a
// live nor a past allocation.
func (a *Attributor) Unattributed() int64 { return a.unattributed.Load() }

// ProcessBatch attributes every sample in batch. It must only be called
// from the goroutine that owns this Attributor. A re-entrant call (the
// owning goroutine calling back into ProcessBatch while already inside
// one, e.g. from a signal-driven sampler callback) is silently dropped
// rather than treated as an error: the original's is_record_safe guard
// discards re-entrant samples instead of aborting, since a profiler that
// crashes the profiled process on re-entry defeats its own purpose.
func (a *Attributor) ProcessBatch(batch []Sample) {
	if a.entered {
		return
	}
	a.entered = true
	defer func() { a.entered = false }()

	for _, s := range batch {
		a.attributeOne(s)
	}
}

func (a *Attributor) attributeOne(s Sample) {
	if alloc, ok := a.reg.FindLiveByAddress(s.Addr); ok {
		a.fold(alloc, s)
		return
	}

	query := types.Window{Start: s.Timestamp, End: s.Timestamp + 1}
	matches, err := a.reg.FindPastByAddressAndWindow(s.Addr, query)
	if err == nil {
		for _, alloc := range matches {
			a.fold(alloc, s)
		}
		return
	}

	a.unattributed.Add(1)
}

func (a *Attributor) fold(alloc *registry.Allocation, s Sample) {
	rank := a.reg.ThreadRank(s.ThreadKey)
	bucket := alloc.PageBucketFor(rank, s.Addr)
	bucket.ByAccess[s.Access].Add(s.Level, s.Outcome, s.Weight)
}
