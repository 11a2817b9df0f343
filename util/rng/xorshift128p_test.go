package rng

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewXorShift128PSeeding(t *testing.T) {
	tests := []struct {
		name string
		seed uint64
		want [2]uint64
	}{
		{"one", 1, [2]uint64{0x0000000100000001, 0x00000000ffffffff}},
		{"answer", 42, [2]uint64{0x0000002a0000002a, 0x00000029ffffffd6}},
		{"zero is substituted", 0, [2]uint64{0x1d81f5ce7f4a7c15, 0xe113025b80b583eb}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewXorShift128P(tt.seed).State)
		})
	}
}

func TestSeedingNeverYieldsZeroState(t *testing.T) {
	seeds := []uint64{0, 1, 2, 0xFFFFFFFF, 0x100000001, 1 << 32, 1 << 63, math.MaxUint64}
	for i := uint(0); i < 64; i++ {
		seeds = append(seeds, uint64(1)<<i, ^(uint64(1) << i))
	}

	for _, seed := range seeds {
		state := NewXorShift128P(seed)
		assert.NotEqual(t, [2]uint64{}, state.State, "seed %#x", seed)
	}
}

func TestKnownSequence(t *testing.T) {
	state := NewXorShift128P(42)
	got := []int{state.Next(0, 100), state.Next(0, 100), state.Next(0, 100), state.Next(0, 100), state.Next(0, 100)}
	assert.Equal(t, []int{16, 17, 70, 21, 29}, got)

	state = NewXorShift128P(42)
	assert.Equal(t, uint64(0x15000ab0aaeaffcf), state.Uint64())
	assert.Equal(t, uint64(0x170009b128ecffce), state.Uint64())
	assert.Equal(t, uint64(0x59aaab1680ca5521), state.Uint64())
}

func TestDeterminism(t *testing.T) {
	a := NewXorShift128P(0xdeadbeef)
	b := NewXorShift128P(0xdeadbeef)

	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Next(0, 100), b.Next(0, 100))
	}

	ranges := [][2]int{{0, 1}, {3, 17}, {0, math.MaxInt32}, {100, 100}, {7, 8}, {1 << 20, 1<<20 + 5}}
	for i := 0; i < 1000; i++ {
		r := ranges[i%len(ranges)]
		require.Equal(t, a.Next(r[0], r[1]), b.Next(r[0], r[1]), "draw %d", i)
	}

	assert.Equal(t, a.State, b.State)
}

func TestRangeContainment(t *testing.T) {
	state := NewXorShift128P(7)
	ranges := [][2]int{{0, 1}, {0, 2}, {0, 10}, {5, 6}, {1000, 1003}, {0, math.MaxInt32}}
	if math.MaxInt > math.MaxInt32 {
		wide := math.MaxInt32
		ranges = append(ranges, [2]int{wide, 2 * wide})
	}

	for _, r := range ranges {
		for i := 0; i < 10000; i++ {
			v := state.Next(r[0], r[1])
			require.GreaterOrEqual(t, v, r[0])
			require.Less(t, v, r[1])
		}
	}
}

func TestDegenerateRange(t *testing.T) {
	state := NewXorShift128PFromTicks()

	for i := 0; i < 100; i++ {
		state.Next(0, 1000)
		assert.Equal(t, 5, state.Next(5, 5))
	}

	for _, k := range []int{0, 1, 1234, math.MaxInt32, math.MaxInt} {
		assert.Equal(t, k, state.Next(k, k))
	}
}

func TestStateNeverZero(t *testing.T) {
	for _, seed := range []uint64{0, 1, 2, 3, 1 << 63} {
		state := NewXorShift128P(seed)
		for i := 0; i < 100000; i++ {
			state.Uint64()
			require.NotEqual(t, [2]uint64{}, state.State, "seed %d after %d draws", seed, i+1)
		}
	}
}

func TestDistributionSmoke(t *testing.T) {
	const draws = 100000

	state := NewXorShift128P(0x5eed)
	var counts [10]int
	for i := 0; i < draws; i++ {
		counts[state.Next(0, 10)]++
	}

	for v, c := range counts {
		assert.InDelta(t, draws/10, c, draws/100, "bucket %d", v)
	}
}

func TestScaleClampsUpperEdge(t *testing.T) {
	assert.Equal(t, 9, scale(math.MaxUint64, 0, 10))
	assert.Equal(t, 9, scale(math.MaxInt64, 0, 10))
	assert.Equal(t, 9, scale(math.MaxInt64-100, 0, 10))
	assert.Equal(t, 0, scale(0, 0, 10))
	assert.Equal(t, 0, scale(1<<63, 0, 10))
	assert.Equal(t, 7, scale(math.MaxUint64, 7, 7))
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange(0, 0))
	assert.NoError(t, CheckRange(0, math.MaxInt32))
	assert.ErrorIs(t, CheckRange(-1, 5), ErrNegativeLowerBound)
	assert.ErrorIs(t, CheckRange(5, 4), ErrInvertedRange)

	if math.MaxInt > math.MaxInt32 {
		tooWide := math.MaxInt32
		tooWide++
		assert.ErrorIs(t, CheckRange(0, tooWide), ErrRangeTooWide)
		assert.ErrorIs(t, CheckRange(tooWide, 2*tooWide), ErrRangeTooWide)
	}
}

func TestSeedMatchesConstructor(t *testing.T) {
	state := NewXorShift128P(99)
	state.Next(0, 10)
	state.Seed(99)

	assert.Equal(t, NewXorShift128P(99).State, state.State)
}

func TestMathRandSource(t *testing.T) {
	var _ rand.Source64 = (*XorShift128PState)(nil)

	a := rand.New(NewXorShift128P(3))
	b := rand.New(NewXorShift128P(3))

	for i := 0; i < 100; i++ {
		v := a.Intn(50)
		require.Equal(t, v, b.Intn(50))
		require.GreaterOrEqual(t, v, 0)
	}

	assert.GreaterOrEqual(t, NewXorShift128P(3).Int63(), int64(0))
}

func TestFork(t *testing.T) {
	parent := NewXorShift128P(11)
	child := parent.Fork()

	replay := NewXorShift128P(11)
	assert.Equal(t, NewXorShift128P(replay.Uint64()).State, child.State)
	assert.Equal(t, replay.State, parent.State)
	assert.NotEqual(t, parent.State, child.State)
}

func TestString(t *testing.T) {
	assert.Equal(t, "000030390000303900003038ffffcfc7", NewXorShift128P(12345).String())
}

func BenchmarkNext(b *testing.B) {
	state := NewXorShift128P(1)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		state.Next(0, 1000)
	}
}

func BenchmarkMathRandIntn(b *testing.B) {
	r := rand.New(rand.NewSource(1))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Intn(1000)
	}
}
