package memutils_test

import (
	"math"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/zone/memutils"
)

func TestDetailedStatisticsAccumulate(t *testing.T) {
	var first memutils.DetailedStatistics
	first.Clear()
	first.AddAllocation(32, 64)
	first.AddAllocation(96, 128)
	first.AddUnusedRange(500)

	var second memutils.DetailedStatistics
	second.Clear()
	second.AddAllocation(256, 288)

	var total memutils.DetailedStatistics
	total.Clear()
	total.AddDetailedStatistics(&first)
	total.AddDetailedStatistics(&second)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			AllocationCount: 3,
			AllocationBytes: 384,
			SpanBytes:       480,
		},
		UnusedRangeCount:   1,
		AllocationSizeMin:  32,
		AllocationSizeMax:  256,
		UnusedRangeSizeMin: 500,
		UnusedRangeSizeMax: 500,
	}, total)
	require.Equal(t, 96, total.OverheadBytes())
}

func TestDetailedStatisticsClear(t *testing.T) {
	var stats memutils.DetailedStatistics
	stats.AddAllocation(32, 64)
	stats.Clear()

	require.Equal(t, memutils.DetailedStatistics{
		AllocationSizeMin:  math.MaxInt,
		UnusedRangeSizeMin: math.MaxInt,
	}, stats)
}

func TestDetailedStatisticsJson(t *testing.T) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	stats.AddAllocation(64, 96)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	stats.JsonData(&obj)
	obj.End()

	require.NoError(t, writer.Error())
	require.JSONEq(t, `{"Allocations":1,"AllocationBytes":64,"SpanBytes":96,"AllocationSizeMin":64,"AllocationSizeMax":64}`, string(writer.Bytes()))
}
