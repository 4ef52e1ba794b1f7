package raw_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/raw"
)

type region struct {
	offset int
	size   int
	free   bool
}

func regions(t *testing.T, arena *raw.Arena) []region {
	var out []region
	err := arena.VisitAllRegions(func(offset, size int, free bool) error {
		out = append(out, region{offset: offset, size: size, free: free})
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestArenaFirstFit(t *testing.T) {
	arena, err := raw.NewArena(1024)
	require.NoError(t, err)

	a, err := arena.Allocate(100)
	require.NoError(t, err)
	require.Len(t, a, 100)
	require.Equal(t, 112, cap(a))

	b, err := arena.Allocate(200)
	require.NoError(t, err)
	require.Equal(t, 208, cap(b))

	require.Equal(t, []region{
		{offset: 0, size: 112},
		{offset: 112, size: 208},
		{offset: 320, size: 704, free: true},
	}, regions(t, arena))
	require.Equal(t, 704, arena.SumFreeSize())
	require.NoError(t, arena.Validate())

	arena.Free(a)
	c, err := arena.Allocate(50)
	require.NoError(t, err)
	require.Equal(t, []region{
		{offset: 0, size: 64},
		{offset: 64, size: 48, free: true},
		{offset: 112, size: 208},
		{offset: 320, size: 704, free: true},
	}, regions(t, arena))
	require.NoError(t, arena.Validate())

	arena.Free(b)
	arena.Free(c)
	require.True(t, arena.IsEmpty())
	require.Equal(t, 1, arena.FreeRegionsCount())
	require.Equal(t, 1024, arena.SumFreeSize())
	require.NoError(t, arena.Validate())
}

func TestArenaCoalescesBothNeighbours(t *testing.T) {
	arena, err := raw.NewArena(48)
	require.NoError(t, err)

	a, err := arena.Allocate(16)
	require.NoError(t, err)
	b, err := arena.Allocate(16)
	require.NoError(t, err)
	c, err := arena.Allocate(16)
	require.NoError(t, err)

	arena.Free(a)
	arena.Free(c)
	require.Equal(t, 2, arena.FreeRegionsCount())

	arena.Free(b)
	require.Equal(t, 1, arena.FreeRegionsCount())
	require.Equal(t, []region{{offset: 0, size: 48, free: true}}, regions(t, arena))
	require.NoError(t, arena.Validate())
}

func TestArenaExhaustion(t *testing.T) {
	arena, err := raw.NewArena(64)
	require.NoError(t, err)

	a, err := arena.Allocate(32)
	require.NoError(t, err)
	_, err = arena.Allocate(32)
	require.NoError(t, err)

	_, err = arena.Allocate(1)
	require.ErrorIs(t, err, raw.ErrExhausted)

	arena.Free(a)
	_, err = arena.Allocate(48)
	require.ErrorIs(t, err, raw.ErrExhausted)

	_, err = arena.Allocate(32)
	require.NoError(t, err)
}

func TestArenaStatistics(t *testing.T) {
	arena, err := raw.NewArena(256)
	require.NoError(t, err)

	_, err = arena.Allocate(32)
	require.NoError(t, err)
	_, err = arena.Allocate(64)
	require.NoError(t, err)

	var stats memutils.DetailedStatistics
	stats.Clear()
	arena.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			AllocationCount: 2,
			AllocationBytes: 96,
			SpanBytes:       96,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  32,
		AllocationSizeMax:  64,
		UnusedRangeSizeMin: 160,
		UnusedRangeSizeMax: 160,
	}, stats)
}

func TestArenaRejectsForeignSpans(t *testing.T) {
	arena, err := raw.NewArena(64)
	require.NoError(t, err)

	require.Panics(t, func() {
		arena.Free(make([]byte, 16))
	})

	span, err := arena.Allocate(32)
	require.NoError(t, err)
	require.Panics(t, func() {
		arena.Free(span[16:])
	})
}

func TestArenaRejectsTinyCapacity(t *testing.T) {
	_, err := raw.NewArena(8)
	require.ErrorIs(t, err, memutils.NonPositiveError)
}
