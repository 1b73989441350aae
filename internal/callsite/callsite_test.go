package callsite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numamma/numamma-go/internal/attributor"
	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

func TestFingerprint_DedupsIdenticalSizeAndStack(t *testing.T) {
	stack := []uintptr{1, 2, 3, 4, 5}
	a := Fingerprint(64, stack)
	b := Fingerprint(64, stack)
	assert.Equal(t, a, b)

	c := Fingerprint(128, stack)
	assert.NotEqual(t, a, c)
}

func TestFingerprint_ShortStackFallsBackToCallerIP(t *testing.T) {
	a := Fingerprint(32, []uintptr{0xaaaa})
	b := Fingerprint(32, []uintptr{0xbbbb})
	assert.NotEqual(t, a, b)
}

func TestAggregator_RecordFoldsAndDedups(t *testing.T) {
	reg := registry.New()
	stack := []uintptr{1, 2, 3, 4}

	alloc1 := reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, stack)
	alloc2 := reg.RegisterRegion(types.KindHeap, 0x2000, 64, 0, stack)

	att := attributor.New(reg)
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 1, Level: types.HitL1, Weight: 10, Access: types.AccessRead},
		{Addr: 0x2000, Timestamp: 1, Level: types.HitL1, Weight: 20, Access: types.AccessRead},
	})

	ag := New()
	ag.Record(alloc1, 64)
	ag.Record(alloc2, 64)

	sites := ag.Sites()
	require.Len(t, sites, 1)
	assert.Equal(t, uint64(30), sites[0].ReadWeight())
}

func TestAggregator_SitesRankedByReadWeightDescending(t *testing.T) {
	reg := registry.New()
	small := reg.RegisterRegion(types.KindHeap, 0x1000, 16, 0, []uintptr{1, 2, 3, 4})
	big := reg.RegisterRegion(types.KindHeap, 0x2000, 32, 0, []uintptr{5, 6, 7, 8})

	att := attributor.New(reg)
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 1, Level: types.HitL1, Weight: 5, Access: types.AccessRead},
		{Addr: 0x2000, Timestamp: 1, Level: types.HitL1, Weight: 50, Access: types.AccessRead},
	})

	ag := New()
	ag.Record(small, 16)
	ag.Record(big, 32)

	sites := ag.Sites()
	require.Len(t, sites, 2)
	assert.Equal(t, uint64(50), sites[0].ReadWeight())
	assert.Equal(t, uint64(5), sites[1].ReadWeight())
}

func TestAggregator_DedupsHundredIdenticalAllocations(t *testing.T) {
	reg := registry.New()
	stack := []uintptr{1, 2, 3, 100, 200, 300}

	att := attributor.New(reg)
	allocs := make([]*registry.Allocation, 100)
	for i := range allocs {
		addr := types.Address(0x10000 + uint64(i)*0x100)
		allocs[i] = reg.RegisterRegion(types.KindHeap, addr, 64, 0, stack)
		att.ProcessBatch([]attributor.Sample{
			{Addr: addr, Timestamp: 1, Level: types.HitL1, Weight: 7, Access: types.AccessRead, ThreadKey: "t"},
		})
	}

	ag := New()
	for _, a := range allocs {
		ag.Record(a, 64)
	}

	sites := ag.Sites()
	require.Len(t, sites, 1)
	assert.Equal(t, 100, sites[0].NAllocations)
	assert.Equal(t, uint64(700), sites[0].ReadWeight())
	assert.Equal(t, 100, sites[0].ReadCount())
}

func TestAggregator_RecordingOnceDoesNotDoubleCount(t *testing.T) {
	reg := registry.New()
	alloc := reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, []uintptr{1, 2, 3, 4})

	att := attributor.New(reg)
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 1, Level: types.HitL1, Weight: 10, Access: types.AccessRead},
	})
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 2, Level: types.HitL1, Weight: 20, Access: types.AccessRead},
	})

	ag := New()
	ag.Record(alloc, 64)

	sites := ag.Sites()
	require.Len(t, sites, 1)
	assert.Equal(t, uint64(30), sites[0].ReadWeight())
}

func TestAggregator_HeatTableByPageAndThread(t *testing.T) {
	reg := registry.New()
	alloc := reg.RegisterRegion(types.KindHeap, 0x1000, 8192, 0, []uintptr{1, 2, 3, 4})

	att := attributor.New(reg)
	att.ProcessBatch([]attributor.Sample{
		{Addr: 0x1000, Timestamp: 1, Level: types.HitL1, Weight: 1, Access: types.AccessRead, ThreadKey: "a"},
		{Addr: 0x1000 + 4096, Timestamp: 1, Level: types.HitL1, Weight: 1, Access: types.AccessWrite, ThreadKey: "b"},
	})

	ag := New()
	ag.Record(alloc, 8192)

	heat := ag.Sites()[0].Heat()
	require.Len(t, heat, 2)
	assert.Equal(t, uint64(0), heat[0].Page)
	assert.Equal(t, uint64(1), heat[1].Page)
}

func TestAggregator_StableTieBreakByInsertionOrder(t *testing.T) {
	reg := registry.New()
	a1 := reg.RegisterRegion(types.KindHeap, 0x1000, 16, 0, []uintptr{1, 2, 3, 4})
	a2 := reg.RegisterRegion(types.KindHeap, 0x2000, 32, 0, []uintptr{5, 6, 7, 8})

	ag := New()
	ag.Record(a1, 16)
	ag.Record(a2, 32)

	sites := ag.Sites()
	require.Len(t, sites, 2)
	assert.Equal(t, Fingerprint(16, a1.CallerIPs), sites[0].Fingerprint)
}
