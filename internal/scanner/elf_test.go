//go:build linux

package scanner

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sym(bind elf.SymBind, typ elf.SymType, size uint64) elf.Symbol {
	return elf.Symbol{Info: uint8(elf.ST_INFO(bind, typ)), Size: size}
}

func TestIsTrackedGlobal(t *testing.T) {
	cases := []struct {
		name string
		s    elf.Symbol
		want bool
	}{
		{"global_object", sym(elf.STB_GLOBAL, elf.STT_OBJECT, 8), true},
		{"global_tls", sym(elf.STB_GLOBAL, elf.STT_TLS, 4), true},
		{"local_object_rejected", sym(elf.STB_LOCAL, elf.STT_OBJECT, 8), false},
		{"global_func_rejected", sym(elf.STB_GLOBAL, elf.STT_FUNC, 8), false},
		{"zero_size_rejected", sym(elf.STB_GLOBAL, elf.STT_OBJECT, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isTrackedGlobal(tc.s))
		})
	}
}
