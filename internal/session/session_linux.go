//go:build linux

package session

import (
	"github.com/numamma/numamma-go/internal/scanner"
)

// RegisterImage scans /proc/self/maps and the process's own ELF image for
// stack regions and global/TLS variables, registering each as a region in
// the session's registry with alloc_time 0 (these regions predate the
// profiling session itself, see internal/scanner.Scanner.Register).
func (s *Session) RegisterImage() error {
	return scanner.New(s.log).Register(s.Registry)
}
