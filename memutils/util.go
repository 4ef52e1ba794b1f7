package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~int32 | ~uint32 | ~int64 | ~uint64
}

// CheckPow2 returns a PowerOfTwoError naming the offending value if number is not a power of two.
// Zero is rejected as well.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// CheckPositive returns a NonPositiveError naming the offending value if number is not greater than zero.
func CheckPositive[T Number](number T, name string) error {
	if number <= 0 {
		return cerrors.Wrapf(NonPositiveError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment, which must be a power of two.
func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}
