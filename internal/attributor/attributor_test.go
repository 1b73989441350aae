package attributor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numamma/numamma-go/internal/registry"
	"github.com/numamma/numamma-go/pkg/types"
)

func TestAttributor_LiveHit(t *testing.T) {
	reg := registry.New()
	reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, nil)

	a := New(reg)
	a.ProcessBatch([]Sample{
		{Addr: 0x1010, Timestamp: 1, Level: types.HitL1, Weight: 4, Access: types.AccessRead, ThreadKey: "w1"},
	})

	assert.Equal(t, int64(0), a.Unattributed())
}

func TestAttributor_PastHitWithinWindow(t *testing.T) {
	reg := registry.New()
	reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, nil)
	reg.MarkFreed(0x1000, 10)

	a := New(reg)
	a.ProcessBatch([]Sample{
		{Addr: 0x1010, Timestamp: 5, Level: types.HitL2, Weight: 2, Access: types.AccessWrite, ThreadKey: "w1"},
	})

	assert.Equal(t, int64(0), a.Unattributed())
}

func TestAttributor_MissIsCountedAndDropped(t *testing.T) {
	reg := registry.New()
	a := New(reg)
	a.ProcessBatch([]Sample{
		{Addr: 0xdeadbeef, Timestamp: 1, Level: types.HitL1, Weight: 1, Access: types.AccessRead},
	})
	assert.Equal(t, int64(1), a.Unattributed())
}

func TestAttributor_ReentrantCallIsSilentlyDropped(t *testing.T) {
	reg := registry.New()
	reg.RegisterRegion(types.KindHeap, 0x1000, 64, 0, nil)

	a := New(reg)
	a.entered = true
	batch := []Sample{
		{Addr: 0x1010, Timestamp: 1, Level: types.HitL1, Weight: 4, Access: types.AccessRead, ThreadKey: "w1"},
	}
	assert.NotPanics(t, func() { a.ProcessBatch(batch) })
	assert.Equal(t, int64(0), a.Unattributed(), "re-entrant batch must be dropped, not attributed")
	assert.True(t, a.entered, "re-entrant call must not clear the owning call's guard")
}

func TestAttributor_FoldsIntoCorrectPageBucket(t *testing.T) {
	reg := registry.New()
	alloc := reg.RegisterRegion(types.KindHeap, 0x10000, 0x4000, 0, nil)

	a := New(reg)
	a.ProcessBatch([]Sample{
		{Addr: 0x10010, Timestamp: 1, Level: types.HitL1, Weight: 3, Access: types.AccessRead, ThreadKey: "t"},
		{Addr: 0x11010, Timestamp: 1, Level: types.HitL1, Weight: 7, Access: types.AccessRead, ThreadKey: "t"},
	})

	pages := alloc.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, uint64(0), pages[0].PageIndex)
	assert.Equal(t, uint64(3), pages[0].ByAccess[types.AccessRead].Sum(types.HitL1, types.Hit))
	assert.Equal(t, uint64(1), pages[1].PageIndex)
	assert.Equal(t, uint64(7), pages[1].ByAccess[types.AccessRead].Sum(types.HitL1, types.Hit))
}
