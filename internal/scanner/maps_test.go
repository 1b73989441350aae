//go:build linux

package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `55a1f2a00000-55a1f2a21000 r--p 00000000 08:02 1234567 /usr/bin/sample
55a1f2a21000-55a1f2a9a000 r-xp 00021000 08:02 1234567 /usr/bin/sample
7f12a3e00000-7f12a3e21000 rw-p 00000000 00:00 0
7f12a3e21000-7f12a4000000 rw-p 00000000 00:00 0  [heap]
7ffce1234000-7ffce1255000 rw-p 00000000 00:00 0  [stack]
malformed line without enough fields
7f12b0000000-7f12b0021000 rw-p 00000000 00:00 0  [stack:42]
`

func TestParseSelfMaps(t *testing.T) {
	entries, err := ParseSelfMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, entries, 6)

	assert.Equal(t, uint64(0x55a1f2a00000), entries[0].Start)
	assert.Equal(t, uint64(0x55a1f2a21000), entries[0].End)
	assert.Equal(t, "/usr/bin/sample", entries[0].Path)
}

func TestFindStack(t *testing.T) {
	entries, err := ParseSelfMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	stacks := FindStack(entries)
	require.Len(t, stacks, 2)
	assert.Equal(t, "[stack]", stacks[0].Path)
	assert.Equal(t, "[stack:42]", stacks[1].Path)
}

func TestObjectFiles(t *testing.T) {
	entries, err := ParseSelfMaps(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	files := ObjectFiles(entries)
	require.Len(t, files, 1)
	assert.Equal(t, "/usr/bin/sample", files[0])
}
