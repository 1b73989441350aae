package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numamma/numamma-go/internal/attributor"
	"github.com/numamma/numamma-go/internal/callsite"
	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

func buildSites(t *testing.T) []*callsite.Site {
	t.Helper()
	reg := registry.New()
	alloc := reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, []uintptr{1, 2, 3, 4})

	att := attributor.New(reg)
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 1, Level: types.HitL1, Weight: 9, Access: types.AccessRead},
	})

	ag := callsite.New()
	ag.Record(alloc, 64)
	return ag.Sites()
}

func TestReporter_PrintSummary(t *testing.T) {
	sites := buildSites(t)
	var buf bytes.Buffer
	r := New(t.TempDir(), false)
	r.PrintSummary(&buf, sites, 2)

	out := buf.String()
	assert.Contains(t, out, "N_ALLOC")
	assert.Contains(t, out, "unattributed samples: 2")
}

func TestReporter_WriteAllCreatesExpectedFiles(t *testing.T) {
	dir := t.TempDir()
	sites := buildSites(t)
	reg := registry.New()
	live := reg.RegisterRegion(types.KindHeap, 0x2000, 32, 0, nil)

	r := New(dir, true)
	require.NoError(t, r.WriteAll([]*registry.Allocation{live}, nil, sites))

	for _, name := range []string{
		"all_memory_objects.dat",
		"call_sites.log",
		"callsite_summary_0.dat",
		"callsite_counters_0.dat",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
