package zone

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/zone/internal/buckets"
	"golang.org/x/exp/slog"
)

// FreeTags purges every block whose tag lies in [low, high]. The range is clamped to the live tags,
// so FreeTags(TagFree, TagCache) empties the allocator. Slots recorded for the purged blocks are set
// to nil.
func (a *Allocator) FreeTags(low, high Tag) {
	a.checkUsable()

	if low <= TagFree {
		low = TagFree + 1
	}
	if high > TagCache {
		high = TagCache
	}
	a.logger.Debug("Allocator::FreeTags", slog.String("Low", low.String()), slog.String("High", high.String()))

	evicted := 0
	for tag := low; tag <= high; tag++ {
		evicted += a.evictAll(tag)
	}

	if evicted > 0 {
		a.purges.Bulk++
		a.logger.Debug("    Allocator::FreeTags purged blocks", slog.Int("EvictedBlocks", evicted))
	}
	memutils.DebugValidate(a)
}

// ChangeTag moves a live block to the newest end of tag's bucket. The block's contents, size and
// recorded slot are unchanged. Passing nil, or the tag the block already carries, does nothing.
func (a *Allocator) ChangeTag(p []byte, tag Tag) {
	a.checkUsable()
	if cap(p) == 0 {
		return
	}
	checkTag(tag)

	handle := a.handleOf(p)
	if a.blocks.Tag(handle) == int(tag) {
		return
	}
	a.logger.Debug("Allocator::ChangeTag",
		slog.String("From", Tag(a.blocks.Tag(handle)).String()),
		slog.String("To", tag.String()),
	)

	a.blocks.Retag(handle, int(tag))
	memutils.DebugValidate(a)
}

// SetPurgeLimit changes the soft ceiling that triggers proactive cache purges. It does nothing
// unless purge limits are active. A size below MinPurgeLimit is fatal.
func (a *Allocator) SetPurgeLimit(size int) {
	a.checkUsable()
	if !a.purgeLimitActive || size == a.budget.Limit() {
		return
	}

	if size < MinPurgeLimit {
		a.fatal(errors.Wrapf(ErrPurgeLimitTooSmall, "attempted to set a purge limit of %d bytes, the minimum is %d", size, MinPurgeLimit))
	}

	a.logger.Debug("Allocator::SetPurgeLimit", slog.Int("From", a.budget.Limit()), slog.Int("To", size))
	a.budget.SetLimit(size)
}

// evictAll purges every block currently in tag's bucket, oldest first, and returns how many were
// purged. The bucket's tail is captured up front so the loop is bounded by the starting population.
func (a *Allocator) evictAll(tag Tag) int {
	end := a.blocks.Tail(int(tag))
	if end == buckets.NoHandle {
		return 0
	}

	evicted := 0
	for {
		handle := a.blocks.Head(int(tag))
		a.evict(handle)
		evicted++

		if handle == end {
			return evicted
		}
	}
}

// purgeCacheUntilFits purges cached blocks oldest first until charging size more bytes stays under
// the purge limit, or every block that was cached when the purge began is gone.
func (a *Allocator) purgeCacheUntilFits(size int) {
	end := a.blocks.Tail(int(TagCache))
	if end == buckets.NoHandle {
		return
	}

	a.purges.Proactive++
	evicted := 0
	for !a.budget.Fits(size) {
		handle := a.blocks.Head(int(TagCache))
		a.evict(handle)
		evicted++

		if handle == end {
			break
		}
	}

	a.logger.Debug("    Allocator::purgeCacheUntilFits",
		slog.Int("Size", size),
		slog.Int("EvictedBlocks", evicted),
		slog.Int("Used", a.budget.Used()),
		slog.Int("PurgeLimit", a.budget.Limit()),
	)
}
