//go:build !xsrng_unchecked

package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPanicsOnBadRange(t *testing.T) {
	state := NewXorShift128P(1)

	assert.PanicsWithError(t, "lower bound is negative (min: -1)", func() { state.Next(-1, 10) })
	assert.PanicsWithError(t, "upper bound is below the lower bound (min: 10, max: 9)", func() { state.Next(10, 9) })
	if math.MaxInt > math.MaxInt32 {
		tooWide := math.MaxInt32
		tooWide++
		assert.PanicsWithError(t, "range is wider than MaxInt32 (width: 2147483648)", func() { state.Next(0, tooWide) })
	}

	// a rejected call must not advance the state
	assert.Equal(t, NewXorShift128P(1).State, state.State)
}
