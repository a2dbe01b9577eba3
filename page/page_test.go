package page_test

import (
	"testing"

	"github.com/joeycumines/go-zerokernel/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateRoundsUpToPages(t *testing.T) {
	a := page.New(16, 16) // 256 bytes total

	addr, n, err := a.Allocate(1, page.BottomUp)
	require.NoError(t, err)
	assert.Equal(t, 0, addr)
	assert.Equal(t, 16, n)
}

func TestAllocateFreeRoundTrip(t *testing.T) {
	a := page.New(16, 16)

	before := a.Stats()

	addr, n, err := a.Allocate(48, page.BottomUp)
	require.NoError(t, err)
	assert.Equal(t, 3, n/16)

	a.Free(addr, n)

	after := a.Stats()
	assert.Equal(t, before, after)
}

func TestOutOfMemoryFiresHook(t *testing.T) {
	a := page.New(16, 2)
	var firedWith int
	a.OnOutOfMemory = func(requested int) { firedWith = requested }

	_, _, err := a.Allocate(48, page.BottomUp)
	require.ErrorIs(t, err, page.ErrNoPages)
	assert.Equal(t, 48, firedWith)
}

// TestFragmentationDirectionality: with page size 16 and
// heap size 256 (16 pages), allocate three 16-byte regions BottomUp, free
// the middle one, then allocate 16 bytes TopDown. The new allocation must
// land at the top of the arena, not back into the freed middle gap.
func TestFragmentationDirectionality(t *testing.T) {
	a := page.New(16, 16)

	addr1, n1, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)
	addr2, n2, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)
	addr3, n3, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)

	assert.Equal(t, 0, addr1)
	assert.Equal(t, 16, addr2)
	assert.Equal(t, 32, addr3)

	a.Free(addr2, n2)

	addr4, n4, err := a.Allocate(16, page.TopDown)
	require.NoError(t, err)
	assert.Equal(t, (16-1)*16, addr4, "TopDown allocation should land at the highest free page, not the freed middle gap")
	assert.Equal(t, 16, n4)

	_ = n1
	_ = n3
}

func TestBottomUpFindsLowestQualifyingRun(t *testing.T) {
	a := page.New(16, 8)

	// occupy pages 0-2 and 3
	a1, n1, err := a.Allocate(48, page.BottomUp)
	require.NoError(t, err)
	require.Equal(t, 0, a1)
	require.Equal(t, 48, n1)

	a2, n2, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)
	require.Equal(t, 48, a2)
	require.Equal(t, 16, n2)

	a.Free(a2, n2) // page 3 free again

	a3, _, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)
	assert.Equal(t, 48, a3, "freed page should be reused before scanning past it")
}

func TestDoubleFreeIsNoOpOnBitmap(t *testing.T) {
	a := page.New(16, 4)

	addr, n, err := a.Allocate(16, page.BottomUp)
	require.NoError(t, err)

	a.Free(addr, n)
	assert.NotPanics(t, func() { a.Free(addr, n) })

	// allocator must still be usable and fully free afterwards
	stats := a.Stats()
	assert.Equal(t, 0, stats.UsedPages)
}

func TestStatsFreeBytes(t *testing.T) {
	a := page.New(32, 4) // 128 bytes total
	_, _, err := a.Allocate(32, page.BottomUp)
	require.NoError(t, err)

	stats := a.Stats()
	assert.Equal(t, 96, stats.FreeBytes())
}
