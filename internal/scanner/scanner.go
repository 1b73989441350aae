//go:build linux

package scanner

import (
	"log/slog"
	"os"

	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

// Scanner registers the process's stack and global/TLS variables into a
// Registry by reading /proc/self/maps and the ELF symbol tables of its
// backing object files.
type Scanner struct {
	log *slog.Logger
}

// New returns a Scanner that logs skipped entries to log.
func New(log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{log: log}
}

// Register reads /proc/self/maps and registers every stack mapping and
// ELF-visible global/TLS symbol it finds as a region in reg. Failures to
// read an individual object file are logged and skipped, per the
// external-resource-failure policy; only a failure to read
// /proc/self/maps itself is returned.
//
// Every region the scanner discovers was already part of the process
// image before the profiler ever ran, so each is registered with
// alloc_time 0 rather than the caller's current logical clock: these
// regions did not come into existence at the moment of the scan.
func (s *Scanner) Register(reg *registry.Registry) error {
	const allocTime types.LogicalTime = 0

	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := ParseSelfMaps(f)
	if err != nil {
		return err
	}

	for _, stk := range FindStack(entries) {
		reg.RegisterRegion(types.KindStack, types.Address(stk.Start), types.Bytes(stk.Size()), allocTime, nil)
	}

	bases := make(map[string]uint64)
	for _, e := range entries {
		if e.Path == "" {
			continue
		}
		if b, ok := bases[e.Path]; !ok || e.Start < b {
			bases[e.Path] = e.Start
		}
	}

	for _, path := range ObjectFiles(entries) {
		syms, err := ScanGlobals(path)
		if err != nil {
			s.log.Warn("scanner: skipping object file", slog.String("path", path), slog.Any("err", err))
			continue
		}
		base := bases[path]
		for _, sym := range syms {
			kind := types.KindGlobal
			if sym.TLS {
				kind = types.KindTLS
			}
			addr := types.Address(base + sym.Value)
			if _, ok := reg.FindLiveByAddress(addr); ok {
				continue
			}
			a := reg.RegisterRegion(kind, addr, types.Bytes(sym.Size), allocTime, nil)
			a.SetSymbol(reg.InternSymbol(sym.Name))
		}
	}
	return nil
}
