package memutils_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/zone/memutils"
)

func TestCheckPow2(t *testing.T) {
	require.NoError(t, memutils.CheckPow2(1, "one"))
	require.NoError(t, memutils.CheckPow2(32, "chunk"))
	require.NoError(t, memutils.CheckPow2(uint(4096), "page"))

	err := memutils.CheckPow2(24, "chunk")
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
	require.Contains(t, err.Error(), "chunk is 24")

	require.ErrorIs(t, memutils.CheckPow2(0, "zero"), memutils.PowerOfTwoError)
}

func TestCheckPositive(t *testing.T) {
	require.NoError(t, memutils.CheckPositive(1, "size"))
	require.ErrorIs(t, memutils.CheckPositive(0, "size"), memutils.NonPositiveError)
	require.ErrorIs(t, memutils.CheckPositive(-8, "size"), memutils.NonPositiveError)
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, memutils.AlignUp(0, 32))
	require.Equal(t, 32, memutils.AlignUp(1, 32))
	require.Equal(t, 32, memutils.AlignUp(10, 32))
	require.Equal(t, 32, memutils.AlignUp(32, 32))
	require.Equal(t, 64, memutils.AlignUp(40, 32))
	require.Equal(t, 8, memutils.AlignUp(5, 8))
}

func TestAlignDown(t *testing.T) {
	require.Equal(t, 0, memutils.AlignDown(31, 32))
	require.Equal(t, 32, memutils.AlignDown(63, 32))
	require.Equal(t, 64, memutils.AlignDown(64, 32))
}
