package zone

import (
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/zone/memutils"
	"github.com/vkngwrapper/zone/zone/internal/buckets"
	"golang.org/x/exp/slog"
)

// PurgeStatistics counts the blocks the allocator released on its own initiative
type PurgeStatistics struct {
	// Proactive is the number of purges triggered by an allocation that would cross the purge limit
	Proactive int
	// Reactive is the number of purges triggered by a raw allocation failure
	Reactive int
	// Bulk is the number of FreeTags calls that released at least one block
	Bulk int
	// EvictedBlocks is the number of blocks released by any kind of purge
	EvictedBlocks int
	// EvictedBytes is the usable size of all blocks released by any kind of purge
	EvictedBytes int
}

func (s *PurgeStatistics) JsonData(json *jwriter.ObjectState) {
	json.Name("Proactive").Int(s.Proactive)
	json.Name("Reactive").Int(s.Reactive)
	json.Name("Bulk").Int(s.Bulk)
	json.Name("EvictedBlocks").Int(s.EvictedBlocks)
	json.Name("EvictedBytes").Int(s.EvictedBytes)
}

// Statistics is a snapshot of the allocator's live blocks, grouped by tag
type Statistics struct {
	Total memutils.DetailedStatistics
	// Tags holds one entry per tag, indexed by Tag. The TagFree entry is always empty.
	Tags [tagCount]memutils.DetailedStatistics

	PurgeLimit int
	Used       int
	PeakUsed   int
	Purges     PurgeStatistics
}

// CalculateStatistics walks every live block and returns a snapshot of the allocator's usage
func (a *Allocator) CalculateStatistics() Statistics {
	a.checkUsable()
	a.logger.Debug("Allocator::CalculateStatistics")

	var stats Statistics
	stats.Total.Clear()
	for tag := range stats.Tags {
		tagStats := &stats.Tags[tag]
		tagStats.Clear()

		a.blocks.Visit(tag, func(handle buckets.Handle, data *blockData) bool {
			tagStats.AddAllocation(data.size, len(data.span))
			return true
		})

		stats.Total.AddDetailedStatistics(tagStats)
	}

	stats.PurgeLimit = a.budget.Limit()
	stats.Used = a.budget.Used()
	stats.PeakUsed = a.budget.Peak()
	stats.Purges = a.purges

	return stats
}

// BuildStatsString returns a JSON document describing the allocator's usage. When detailed is true,
// every live block is listed under its tag, oldest first.
func (a *Allocator) BuildStatsString(detailed bool) string {
	a.checkUsable()
	a.logger.Debug("Allocator::BuildStatsString", slog.Bool("Detailed", detailed))

	stats := a.CalculateStatistics()

	writer := jwriter.NewWriter()
	topObj := writer.Object()

	topObj.Name("PurgeLimit").Int(stats.PurgeLimit)
	topObj.Name("Used").Int(stats.Used)
	topObj.Name("PeakUsed").Int(stats.PeakUsed)

	purgeObj := topObj.Name("Purges").Object()
	stats.Purges.JsonData(&purgeObj)
	purgeObj.End()

	totalObj := topObj.Name("Total").Object()
	stats.Total.JsonData(&totalObj)
	totalObj.End()

	tagsObj := topObj.Name("Tags").Object()
	for tag := TagFree + 1; tag <= TagCache; tag++ {
		if a.blocks.Len(int(tag)) == 0 {
			continue
		}

		tagObj := tagsObj.Name(strconv.Itoa(int(tag))).Object()
		tagObj.Name("Name").String(tag.String())
		stats.Tags[tag].JsonData(&tagObj)

		if detailed {
			a.printBlocks(tag, &tagObj)
		}
		tagObj.End()
	}
	tagsObj.End()

	topObj.End()

	return string(writer.Bytes())
}

func (a *Allocator) printBlocks(tag Tag, json *jwriter.ObjectState) {
	arrayState := json.Name("Blocks").Array()
	defer arrayState.End()

	a.blocks.Visit(int(tag), func(handle buckets.Handle, data *blockData) bool {
		obj := arrayState.Object()
		defer obj.End()

		obj.Name("Handle").Int(int(handle))
		obj.Name("Size").Int(data.size)
		obj.Name("Requested").Int(data.requested)
		obj.Name("HasUser").Bool(data.user != nil)

		return true
	})
}
