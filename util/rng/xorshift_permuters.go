package rng

// permutes a [2]uint64 state according to xorshift128+ with (23, 17, 26) shifts
// http://vigna.di.unimi.it/ftp/papers/xorshiftplus.pdf
//
// note: the last term shifts x, not y as in the paper. do not "fix" it, it
// changes every sequence.
func xorShift128PPermuteState(s []uint64) (result uint64) {
	x := s[0]
	y := s[1]
	s[0] = y

	x ^= x << 23
	s[1] = x ^ y ^ (x >> 17) ^ (x >> 26)

	result = s[1] + y

	return
}
