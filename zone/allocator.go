package zone

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/raw"
	"github.com/vkngwrapper/zone/zone/internal/buckets"
	"github.com/vkngwrapper/zone/zone/internal/budget"
	"golang.org/x/exp/slog"
)

// Allocator is a tagged zone allocator layered on top of a raw.Allocator. Every block carries a Tag,
// blocks can be released in bulk by tag range, and blocks tagged TagCache are purged automatically
// when memory runs short.
//
// An Allocator is not safe for concurrent use.
type Allocator struct {
	logger       *slog.Logger
	backing      raw.Allocator
	createFlags  CreateFlags
	fatalHandler func(err error)
	failure      error

	chunkSize        uint
	headerSize       int
	purgeLimitActive bool

	blocks *buckets.Table[blockData]
	lookup *swiss.Map[uintptr, buckets.Handle]
	budget budget.Tracker
	purges PurgeStatistics
}

var _ memutils.Validatable = &Allocator{}

func checkTag(tag Tag) {
	if !tag.Valid() {
		panic(fmt.Sprintf("attempted to use tag %d, live blocks must carry a tag in [%d, %d]", int(tag), int(TagFree)+1, int(TagCache)))
	}
}

// Malloc allocates a block of at least size bytes carrying tag. The returned slice has a length of
// size and a capacity of size rounded up to the chunk size. If user is not nil, the payload is
// stored into it; when the block is later purged, *user is set back to nil.
//
// A size of 0 returns nil and stores nil into user.
func (a *Allocator) Malloc(size int, tag Tag, user *[]byte) []byte {
	a.checkUsable()
	a.logger.Debug("Allocator::Malloc", slog.Int("Size", size), slog.String("Tag", tag.String()))

	payload := a.allocate(size, tag, user)
	memutils.DebugValidate(a)

	return payload
}

func checkSize(size int) {
	if size < 0 {
		panic(fmt.Sprintf("attempted to allocate a block of negative size %d", size))
	}
}

func (a *Allocator) allocate(size int, tag Tag, user *[]byte) []byte {
	checkTag(tag)
	checkSize(size)

	if size == 0 {
		if user != nil {
			*user = nil
		}
		return nil
	}

	blockSize := memutils.AlignUp(size, a.chunkSize)
	if !a.budget.Fits(blockSize + a.headerSize) {
		a.purgeCacheUntilFits(blockSize + a.headerSize)
	}

	span := a.allocateSpan(a.headerSize + blockSize + memutils.DebugMargin)
	handle := a.blocks.Insert(int(tag), blockData{
		span:      span,
		size:      blockSize,
		requested: size,
		user:      user,
	})

	writeHeader(span, handle)
	memutils.DebugFill(span[a.headerSize:a.headerSize+blockSize], memutils.CreatedFillPattern)
	memutils.WriteMagicValue(span, a.headerSize+blockSize)

	payload := span[a.headerSize : a.headerSize+size : a.headerSize+blockSize]
	a.lookup.Put(payloadKey(payload), handle)
	a.budget.Charge(blockSize)

	if user != nil {
		*user = payload
	}

	return payload
}

// allocateSpan requests size bytes from the raw allocator. Each exhaustion purges the whole cache and
// retries; once the cache is empty exhaustion is fatal. Any other raw failure is fatal immediately.
func (a *Allocator) allocateSpan(size int) []byte {
	for {
		span, err := a.backing.Allocate(size)
		if err == nil {
			return span
		}

		if !errors.Is(err, raw.ErrExhausted) {
			a.fatal(errors.Wrapf(err, "raw allocator failed to allocate %d bytes", size))
		}

		if a.blocks.Len(int(TagCache)) == 0 {
			a.fatal(errors.Mark(errors.Wrapf(err, "failure trying to allocate %d bytes", size), ErrOutOfMemory))
		}

		a.purges.Reactive++
		evicted := a.evictAll(TagCache)
		a.logger.Debug("    Allocator::allocateSpan purged cache after raw allocation failure",
			slog.Int("Size", size),
			slog.Int("EvictedBlocks", evicted),
		)
	}
}

// Free releases a block previously returned by this allocator. Freeing nil does nothing. The slot
// recorded for the block, if any, is left untouched.
func (a *Allocator) Free(p []byte) {
	a.checkUsable()
	if cap(p) == 0 {
		return
	}
	a.logger.Debug("Allocator::Free", slog.Int("Size", cap(p)))

	a.release(a.handleOf(p))
	memutils.DebugValidate(a)
}

func (a *Allocator) handleOf(p []byte) buckets.Handle {
	handle, ok := a.lookup.Get(payloadKey(p))
	if !ok {
		panic(fmt.Sprintf("attempted to use a block at %#x which was not allocated by this allocator or has already been freed", payloadKey(p)))
	}
	return handle
}

func (a *Allocator) release(handle buckets.Handle) blockData {
	data := a.blocks.Remove(handle)
	a.lookup.Delete(payloadKey(data.span[a.headerSize:]))
	a.budget.Credit(data.size)

	memutils.DebugFill(data.span, memutils.DestroyedFillPattern)
	a.backing.Free(data.span)

	return data
}

// evict releases a block on the allocator's own initiative and nils out the caller's slot
func (a *Allocator) evict(handle buckets.Handle) {
	data := a.release(handle)
	a.clearUser(&data)

	a.purges.EvictedBlocks++
	a.purges.EvictedBytes += data.size
}

// Size returns the usable size of a live block: its requested size rounded up to the chunk size
func (a *Allocator) Size(p []byte) int {
	a.checkUsable()
	return a.blocks.Data(a.handleOf(p)).size
}

// Tag returns the tag carried by a live block
func (a *Allocator) Tag(p []byte) Tag {
	a.checkUsable()

	handle := a.handleOf(p)
	if a.blocks.Detached(handle) {
		panic(fmt.Sprintf("attempted to read the tag of block %d while it is being reallocated", handle))
	}
	return Tag(a.blocks.Tag(handle))
}

// PurgeLimit returns the soft ceiling on outstanding bytes, 0 if none is in effect
func (a *Allocator) PurgeLimit() int { return a.budget.Limit() }

// Used returns the total usable size of all live blocks
func (a *Allocator) Used() int { return a.budget.Used() }

// ChunkSize returns the granularity payloads are rounded up to
func (a *Allocator) ChunkSize() int { return int(a.chunkSize) }

// HeaderSize returns the number of bytes placed ahead of every payload
func (a *Allocator) HeaderSize() int { return a.headerSize }

// Flags returns the flags the allocator was created with
func (a *Allocator) Flags() CreateFlags { return a.createFlags }

// Destroy purges every block of every tag and zeroes the counters, the purge limit included. The
// allocator may be used again afterward, without a purge limit until SetPurgeLimit is called.
func (a *Allocator) Destroy() {
	a.checkUsable()
	a.logger.Debug("Allocator::Destroy", slog.Int("LiveBlocks", a.blocks.Live()))

	a.FreeTags(TagFree, TagCache)

	a.budget.Reset()
	a.purges = PurgeStatistics{}
}
