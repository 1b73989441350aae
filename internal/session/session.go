// Package session orchestrates the registry, attributor, call-site
// aggregator, and reporter behind the external interface spec.md §6
// describes: an ingest API for allocation events, a sampler ingest API,
// and a resolution API for symbol names.
package session

import (
	"log/slog"

	"github.com/numamma/numamma-go/internal/attributor"
	"github.com/numamma/numamma-go/internal/callsite"
	"github.com/numamma/numamma-go/internal/config"
	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/internal/symbolize"
	"github.com/numamma/numamma-go/pkg/types"
)

// Session wires together one profiler run's state.
type Session struct {
	Settings config.Settings
	Registry *registry.Registry
	Attrib   *attributor.Attributor
	Sites    *callsite.Aggregator
	Symbols  symbolize.Symbolizer

	log *slog.Logger

	batches int
}

// New returns a Session configured with settings, logging to log (or
// slog.Default if nil).
func New(settings config.Settings, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	reg := registry.New()
	return &Session{
		Settings: settings,
		Registry: reg,
		Attrib:   attributor.New(reg),
		Sites:    callsite.New(),
		Symbols:  symbolize.Runtime{},
		log:      log,
	}
}

// RecordMalloc is the ingest API's allocation-event entry point. When
// Settings.OnlineAnalysis is set, the allocation's per-thread page-bucket
// arrays are preallocated up to Settings.MaxThreads at registration time
// rather than lazily on first sample.
func (s *Session) RecordMalloc(addr types.Address, size types.Bytes, now types.LogicalTime, callerIPs []uintptr) *registry.Allocation {
	threads := 0
	if s.Settings.OnlineAnalysis {
		threads = s.Settings.MaxThreads
	}
	return s.Registry.RegisterRegionEager(types.KindHeap, addr, size, now, callerIPs, threads)
}

// RecordFree is the ingest API's deallocation-event entry point.
func (s *Session) RecordFree(addr types.Address, now types.LogicalTime) {
	s.Registry.MarkFreed(addr, now)
}

// UpdateAddress is the ingest API's buffer-move entry point (realloc).
func (s *Session) UpdateAddress(oldAddr, newAddr types.Address, newSize types.Bytes) *registry.Allocation {
	return s.Registry.UpdateAddress(oldAddr, newAddr, newSize)
}

// IngestSamples is the sampler ingest API: it attributes a batch of
// samples against the registry, folding each sample's weight into the
// owning allocation's page-bucket counters. The first
// Settings.WarmupBatches batches are discarded entirely, mirroring the
// original's cold-start discard. Per spec.md §4.3, call sites are
// materialized only at shutdown (Finalize), never before: page-bucket
// counters are cumulative, so folding them into a call site more than
// once per allocation would double-count.
func (s *Session) IngestSamples(batch []attributor.Sample) {
	s.batches++
	if s.batches <= s.Settings.WarmupBatches {
		return
	}
	s.Attrib.ProcessBatch(batch)
}

// Finalize walks every past allocation and every still-live allocation
// exactly once, folding each into the call-site aggregator, then returns the
// ranked sites plus the running unattributed-sample count. Still-live
// allocations are folded as they stand: they stay in the live index and
// their lifetime window is left open (free time 0).
func (s *Session) Finalize() ([]*callsite.Site, int64) {
	for _, a := range s.Registry.Past() {
		s.resolveSymbol(a)
		s.Sites.Record(a, a.Initial)
	}
	for _, a := range s.Registry.Live() {
		s.resolveSymbol(a)
		s.Sites.Record(a, a.Initial)
	}
	return s.Sites.Sites(), s.Attrib.Unattributed()
}

// Close releases the session's slab-backed resources (symbol interner and
// page-bucket arena). Callers must finish reading every Allocation and
// call-site result before calling it.
func (s *Session) Close() error {
	return s.Registry.Close()
}

// resolveSymbol fills in a's resolved symbol from its caller_ip via the
// configured Symbolizer, if not already known (global/TLS regions from
// the image scanner already carry their ELF-derived name). Resolution is
// lazy and best-effort: spec.md §6's resolve_symbol is documented as pure
// and idempotent and may return empty.
func (s *Session) resolveSymbol(a *registry.Allocation) {
	if _, known := a.Symbol(); known {
		return
	}
	ip := a.CallerIP()
	if ip == 0 || s.Symbols == nil {
		return
	}
	if name, _, _, ok := s.Symbols.Resolve(ip); ok && name != "" {
		a.SetSymbol(s.Registry.InternSymbol(name))
	}
}
