package raw

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/zone/memutils"
	"golang.org/x/exp/slices"
)

// ArenaAlignment is the granularity at which an Arena carves its region
const ArenaAlignment uint = 16

type freeRange struct {
	offset int
	size   int
}

func compareRangeOffset(r freeRange, offset int) int {
	switch {
	case r.offset < offset:
		return -1
	case r.offset > offset:
		return 1
	default:
		return 0
	}
}

// Arena carves spans out of a single fixed region allocated up front. Free ranges are kept sorted
// by offset and coalesced on release; allocation is first fit. Once the region is fragmented or
// full, requests fail with ErrExhausted, which makes an Arena the natural backing for a zone that
// must live inside a hard memory budget.
type Arena struct {
	region    []byte
	base      uintptr
	freeBytes int

	freeRanges []freeRange
	allocated  *swiss.Map[int, int]
}

var _ Allocator = &Arena{}

// NewArena allocates a region of capacity bytes, rounded down to ArenaAlignment
func NewArena(capacity int) (*Arena, error) {
	capacity = memutils.AlignDown(capacity, ArenaAlignment)
	err := memutils.CheckPositive(capacity, "arena capacity")
	if err != nil {
		return nil, err
	}

	region := make([]byte, capacity)
	return &Arena{
		region:     region,
		base:       uintptr(unsafe.Pointer(unsafe.SliceData(region))),
		freeBytes:  capacity,
		freeRanges: []freeRange{{offset: 0, size: capacity}},
		allocated:  swiss.NewMap[int, int](42),
	}, nil
}

// Capacity is the size in bytes of the region
func (a *Arena) Capacity() int { return len(a.region) }

// SumFreeSize is the number of bytes not currently handed out, regardless of fragmentation
func (a *Arena) SumFreeSize() int { return a.freeBytes }

// FreeRegionsCount is the number of distinct free ranges
func (a *Arena) FreeRegionsCount() int { return len(a.freeRanges) }

// AllocationCount is the number of live spans
func (a *Arena) AllocationCount() int { return a.allocated.Count() }

// IsEmpty reports whether no spans are live
func (a *Arena) IsEmpty() bool { return a.allocated.Count() == 0 }

func (a *Arena) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Newf("attempted to allocate a span of %d bytes", size)
	}

	rounded := memutils.AlignUp(size, ArenaAlignment)
	for i := range a.freeRanges {
		r := a.freeRanges[i]
		if r.size < rounded {
			continue
		}

		if r.size == rounded {
			a.freeRanges = slices.Delete(a.freeRanges, i, i+1)
		} else {
			a.freeRanges[i] = freeRange{offset: r.offset + rounded, size: r.size - rounded}
		}

		a.allocated.Put(r.offset, rounded)
		a.freeBytes -= rounded

		return a.region[r.offset : r.offset+size : r.offset+rounded], nil
	}

	return nil, errors.Wrapf(ErrExhausted, "no free range of %d bytes in arena: %d bytes free across %d ranges", rounded, a.freeBytes, len(a.freeRanges))
}

func (a *Arena) offsetOf(span []byte) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(span)))
	if addr < a.base || addr >= a.base+uintptr(len(a.region)) {
		panic(fmt.Sprintf("attempted to free a span at %#x which is outside of the arena region", addr))
	}
	return int(addr - a.base)
}

// Free returns the span's range to the arena, merging it with free neighbours
func (a *Arena) Free(span []byte) {
	if span == nil {
		return
	}

	offset := a.offsetOf(span)
	size, ok := a.allocated.Get(offset)
	if !ok {
		panic(fmt.Sprintf("attempted to free a span at offset %d which is not allocated", offset))
	}
	if size != cap(span) {
		panic(fmt.Sprintf("attempted to free a span at offset %d with capacity %d, but %d bytes were allocated", offset, cap(span), size))
	}

	a.allocated.Delete(offset)
	a.freeBytes += size

	index, _ := slices.BinarySearchFunc(a.freeRanges, offset, compareRangeOffset)

	mergePrev := index > 0 && a.freeRanges[index-1].offset+a.freeRanges[index-1].size == offset
	mergeNext := index < len(a.freeRanges) && offset+size == a.freeRanges[index].offset

	switch {
	case mergePrev && mergeNext:
		a.freeRanges[index-1].size += size + a.freeRanges[index].size
		a.freeRanges = slices.Delete(a.freeRanges, index, index+1)
	case mergePrev:
		a.freeRanges[index-1].size += size
	case mergeNext:
		a.freeRanges[index].offset = offset
		a.freeRanges[index].size += size
	default:
		a.freeRanges = slices.Insert(a.freeRanges, index, freeRange{offset: offset, size: size})
	}
}

// VisitAllRegions calls visitor once for every allocated and free range of the region, in offset order
func (a *Arena) VisitAllRegions(visitor func(offset, size int, free bool) error) error {
	offsets := make([]int, 0, a.allocated.Count())
	a.allocated.Iter(func(offset, size int) bool {
		offsets = append(offsets, offset)
		return false
	})
	slices.Sort(offsets)

	freeIndex := 0
	for _, offset := range offsets {
		for freeIndex < len(a.freeRanges) && a.freeRanges[freeIndex].offset < offset {
			r := a.freeRanges[freeIndex]
			if err := visitor(r.offset, r.size, true); err != nil {
				return err
			}
			freeIndex++
		}

		size, _ := a.allocated.Get(offset)
		if err := visitor(offset, size, false); err != nil {
			return err
		}
	}

	for ; freeIndex < len(a.freeRanges); freeIndex++ {
		r := a.freeRanges[freeIndex]
		if err := visitor(r.offset, r.size, true); err != nil {
			return err
		}
	}

	return nil
}

// AddDetailedStatistics sums the arena's spans and free ranges into stats
func (a *Arena) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.allocated.Iter(func(offset, size int) bool {
		stats.AddAllocation(size, size)
		return false
	})

	for _, r := range a.freeRanges {
		stats.AddUnusedRange(r.size)
	}
}

// Validate verifies that the allocated and free ranges tile the region exactly, that free ranges
// are sorted and fully coalesced, and that the free byte count is accurate.
func (a *Arena) Validate() error {
	sumFree := 0
	for i, r := range a.freeRanges {
		if r.size <= 0 {
			return errors.Newf("free range %d at offset %d has non-positive size %d", i, r.offset, r.size)
		}
		if i > 0 {
			prev := a.freeRanges[i-1]
			if prev.offset+prev.size > r.offset {
				return errors.Newf("free range at offset %d overlaps the previous range at offset %d", r.offset, prev.offset)
			}
			if prev.offset+prev.size == r.offset {
				return errors.Newf("free ranges at offsets %d and %d are adjacent but were not merged", prev.offset, r.offset)
			}
		}
		sumFree += r.size
	}

	if sumFree != a.freeBytes {
		return errors.Newf("free ranges sum to %d bytes, but the arena records %d free bytes", sumFree, a.freeBytes)
	}

	expectedOffset := 0
	err := a.VisitAllRegions(func(offset, size int, free bool) error {
		if offset != expectedOffset {
			return errors.Newf("region at offset %d does not begin where the previous region ended (%d)", offset, expectedOffset)
		}
		expectedOffset = offset + size
		return nil
	})
	if err != nil {
		return err
	}

	if expectedOffset != len(a.region) {
		return errors.Newf("regions end at offset %d but the arena has capacity %d", expectedOffset, len(a.region))
	}

	return nil
}
