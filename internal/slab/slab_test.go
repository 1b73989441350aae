package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocator_AllocIsZeroed(t *testing.T) {
	var a Allocator
	defer a.Close()

	b, err := a.Alloc(64)
	require.NoError(t, err)
	require.Len(t, b, 64)
	for _, v := range b {
		assert.Zero(t, v)
	}
}

func TestAllocator_FreeRoundTrip(t *testing.T) {
	var a Allocator
	defer a.Close()

	b, err := a.Alloc(128)
	require.NoError(t, err)
	require.NoError(t, a.Free(b))
}

func TestInterner_InternReturnsEqualContent(t *testing.T) {
	var in Interner
	defer in.Close()

	got := in.Intern("__global_counter")
	assert.Equal(t, "__global_counter", got)

	got2 := in.Intern("another_symbol")
	assert.Equal(t, "another_symbol", got2)
	assert.Equal(t, "__global_counter", got, "earlier interned string must stay intact")
}

func TestInterner_EmptyStringPassesThrough(t *testing.T) {
	var in Interner
	defer in.Close()
	assert.Equal(t, "", in.Intern(""))
}

func TestPool_LeaseRelease(t *testing.T) {
	var p Pool
	lease := p.Lease()
	b, err := lease.Alloc(16)
	require.NoError(t, err)
	require.Len(t, b, 16)

	p.Release(lease)

	lease2 := p.Lease()
	b2, err := lease2.Alloc(16)
	require.NoError(t, err)
	require.Len(t, b2, 16)
	p.Release(lease2)
}
