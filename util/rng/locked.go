package rng

import "sync"

// LockedXorShift128P serializes access to a single generator so it can be
// shared between goroutines. The order in which concurrent callers observe
// draws is whatever order they acquire the lock in.
type LockedXorShift128P struct {
	mu    sync.Mutex
	state *XorShift128PState
}

func NewLockedXorShift128P(seed uint64) *LockedXorShift128P {
	return &LockedXorShift128P{state: NewXorShift128P(seed)}
}

// Fill draws len(dst) values in [min, max) while holding the lock once, so
// the values are consecutive in the underlying sequence.
func (l *LockedXorShift128P) Fill(dst []int, min, max int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range dst {
		dst[i] = l.state.Next(min, max)
	}
}

// Reseed replaces the sequence as if the generator was created with seed.
func (l *LockedXorShift128P) Reseed(seed uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.reseed(seed)
}

func (l *LockedXorShift128P) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state.String()
}
