//go:build linux

package scanner

import (
	"debug/elf"
	"fmt"
)

// GlobalSymbol is a global or thread-local variable discovered in an ELF
// object's symbol table.
type GlobalSymbol struct {
	Name  string
	Value uint64
	Size  uint64
	TLS   bool
}

// ScanGlobals opens the ELF object at path and returns every symbol
// considered a global or TLS variable worth tracking: global binding,
// object or TLS type, non-zero size. This mirrors the filter the profiler
// this package is modeled on applies to its own hand-rolled ELF walk.
func ScanGlobals(path string) ([]GlobalSymbol, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scanner: open elf %s: %w", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		// Stripped binaries have no symbol table; that is not an error
		// worth failing the whole scan over.
		return nil, nil
	}

	var out []GlobalSymbol
	for _, s := range syms {
		if !isTrackedGlobal(s) {
			continue
		}
		out = append(out, GlobalSymbol{
			Name:  s.Name,
			Value: s.Value,
			Size:  s.Size,
			TLS:   elf.ST_TYPE(s.Info) == elf.STT_TLS,
		})
	}
	return out, nil
}

func isTrackedGlobal(s elf.Symbol) bool {
	if elf.ST_BIND(s.Info) != elf.STB_GLOBAL {
		return false
	}
	t := elf.ST_TYPE(s.Info)
	if t != elf.STT_OBJECT && t != elf.STT_TLS {
		return false
	}
	return s.Size != 0
}
