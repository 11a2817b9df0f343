// Package rng implements a small xorshift128+ generator for fast bounded
// integer draws. It is not suitable for anything security related.
package rng

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNegativeLowerBound = errors.New("lower bound is negative")
	ErrInvertedRange      = errors.New("upper bound is below the lower bound")
	ErrRangeTooWide       = errors.New("range is wider than MaxInt32")
)

// MaxRangeWidth is the widest max-min a draw accepts.
const MaxRangeWidth = math.MaxInt32

// CheckRange reports whether [min, max) is a valid draw range.
func CheckRange(min, max int) error {
	if min < 0 {
		return fmt.Errorf("%w (min: %d)", ErrNegativeLowerBound, min)
	}

	if max < min {
		return fmt.Errorf("%w (min: %d, max: %d)", ErrInvertedRange, min, max)
	}

	if max-min > MaxRangeWidth {
		return fmt.Errorf("%w (width: %d)", ErrRangeTooWide, max-min)
	}

	return nil
}

// TickSeed returns a coarse, millisecond resolution reading of the clock.
func TickSeed() uint64 {
	return uint64(time.Now().UnixMilli())
}
