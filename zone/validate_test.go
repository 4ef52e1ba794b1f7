package zone

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/zone/raw"
)

func TestCheckCorruptionDetectsHeaderDamage(t *testing.T) {
	allocator := readyAllocator(t, raw.NewHeap(0), CreateOptions{})

	allocator.Malloc(40, 1, nil)
	p := allocator.Malloc(40, 2, nil)
	require.NoError(t, allocator.CheckCorruption())

	data := allocator.blocks.Data(allocator.handleOf(p))
	data.span[0] ^= 0xFF
	require.ErrorContains(t, allocator.CheckCorruption(), "magic value")
	require.Error(t, allocator.Validate())

	data.span[0] ^= 0xFF
	require.NoError(t, allocator.CheckCorruption())
}

func TestValidateDetectsBudgetDrift(t *testing.T) {
	allocator := readyAllocator(t, raw.NewHeap(0), CreateOptions{})

	allocator.Malloc(40, 1, nil)
	require.NoError(t, allocator.Validate())

	allocator.budget.Charge(32)
	require.ErrorContains(t, allocator.Validate(), "charged")
}

func TestValidateDetectsLookupMismatch(t *testing.T) {
	allocator := readyAllocator(t, raw.NewHeap(0), CreateOptions{})

	p := allocator.Malloc(40, 1, nil)
	allocator.lookup.Delete(payloadKey(p))
	require.ErrorContains(t, allocator.Validate(), "lookup table")
}

func TestValidateDetectsWrongHandleInHeader(t *testing.T) {
	allocator := readyAllocator(t, raw.NewHeap(0), CreateOptions{})

	allocator.Malloc(40, 1, nil)
	p := allocator.Malloc(40, 1, nil)

	data := allocator.blocks.Data(allocator.handleOf(p))
	writeHeader(data.span, allocator.handleOf(p)+1)
	require.ErrorContains(t, allocator.Validate(), "records handle")
}
