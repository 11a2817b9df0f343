package rng

import (
	"math"

	"github.com/xor-shift/xsrng/util"
)

const (
	seedMultiplier0 uint64 = 0x100000001
	seedMultiplier1 uint64 = 0xFFFFFFFF

	// ZeroSeedSubstitute replaces a zero seed, which would otherwise give the
	// all zero state.
	ZeroSeedSubstitute uint64 = 0x9E3779B97F4A7C15
)

// XorShift128PState is a xorshift128+ generator. It must not be used from more
// than one goroutine at a time, see LockedXorShift128P.
type XorShift128PState struct {
	State [2]uint64
}

// NewXorShift128P returns a generator whose sequence is fully determined by
// seed.
func NewXorShift128P(seed uint64) *XorShift128PState {
	state := XorShift128PState{}
	state.reseed(seed)

	return &state
}

// NewXorShift128PFromTicks returns a generator seeded from the clock.
func NewXorShift128PFromTicks() *XorShift128PState {
	return NewXorShift128P(TickSeed())
}

// Both multipliers are odd, so the products are zero only for a zero seed.
func (state *XorShift128PState) reseed(seed uint64) {
	if seed == 0 {
		seed = ZeroSeedSubstitute
	}

	state.State[0] = seed * seedMultiplier0
	state.State[1] = seed * seedMultiplier1
}

// Next returns an integer in [min, max), or min when max == min.
//
// The raw output is scaled through a float64 ratio, so the distribution is only
// approximately uniform, with a small bias near the edges of the range.
//
// Next panics if min < 0, max < min or max-min > MaxRangeWidth, unless built
// with the xsrng_unchecked tag in which case the result is undefined.
func (state *XorShift128PState) Next(min, max int) int {
	if checkPreconditions {
		if err := CheckRange(min, max); err != nil {
			panic(err)
		}
	}

	next := xorShift128PPermuteState(state.State[:])

	return scale(next, min, max)
}

func scale(next uint64, min, max int) int {
	width := max - min
	ret := min + int(float64(next&math.MaxInt64)/float64(math.MaxInt64)*float64(width))

	// float64(math.MaxInt64) is 2^63, numerators close to it round up as well
	if width > 0 && ret == max {
		ret = max - 1
	}

	return ret
}

// Uint64 advances the state once and returns the unscaled output.
func (state *XorShift128PState) Uint64() uint64 {
	return xorShift128PPermuteState(state.State[:])
}

// Int63 returns a non-negative 63 bit integer, for use as a math/rand source.
func (state *XorShift128PState) Int63() int64 {
	return int64(state.Uint64() & math.MaxInt64)
}

// Seed resets the generator as if it was created with NewXorShift128P.
func (state *XorShift128PState) Seed(seed int64) {
	state.reseed(uint64(seed))
}

// Fork returns a new generator seeded with the next output of this one.
func (state *XorShift128PState) Fork() *XorShift128PState {
	return NewXorShift128P(state.Uint64())
}

func (state *XorShift128PState) String() string {
	return util.ArrayToString(state.State[:])
}
