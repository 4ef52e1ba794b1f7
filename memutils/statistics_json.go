package memutils

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// JsonData populates a json object with the summed statistics
func (s *Statistics) JsonData(json *jwriter.ObjectState) {
	json.Name("Allocations").Int(s.AllocationCount)
	json.Name("AllocationBytes").Int(s.AllocationBytes)
	json.Name("SpanBytes").Int(s.SpanBytes)
}

// JsonData populates a json object with the detailed statistics. Size extremes are only written
// when at least one sample contributed to them.
func (s *DetailedStatistics) JsonData(json *jwriter.ObjectState) {
	s.Statistics.JsonData(json)

	if s.AllocationCount > 0 {
		json.Name("AllocationSizeMin").Int(s.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(s.AllocationSizeMax)
	}

	if s.UnusedRangeCount > 0 {
		json.Name("UnusedRanges").Int(s.UnusedRangeCount)
		json.Name("UnusedRangeSizeMin").Int(s.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(s.UnusedRangeSizeMax)
	}
}
