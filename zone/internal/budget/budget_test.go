package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnlimitedAlwaysFits(t *testing.T) {
	var tracker Tracker

	require.False(t, tracker.Limited())
	tracker.Charge(1 << 40)
	require.True(t, tracker.Fits(1<<40))
}

func TestFitsAgainstHeadroom(t *testing.T) {
	var tracker Tracker
	tracker.SetLimit(1000)

	tracker.Charge(600)
	require.Equal(t, 400, tracker.Headroom())
	require.True(t, tracker.Fits(400))
	require.False(t, tracker.Fits(401))

	tracker.Credit(100)
	require.True(t, tracker.Fits(500))
	require.Equal(t, 600, tracker.Peak())
}

func TestUsedMayGoNegative(t *testing.T) {
	var tracker Tracker
	tracker.Credit(64)
	require.Equal(t, -64, tracker.Used())

	tracker.SetLimit(100)
	require.True(t, tracker.Fits(164))
}

func TestReset(t *testing.T) {
	var tracker Tracker
	tracker.SetLimit(100)
	tracker.Charge(50)
	tracker.Reset()

	require.Equal(t, Tracker{}, tracker)
}
