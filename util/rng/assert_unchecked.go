//go:build xsrng_unchecked

package rng

const checkPreconditions = false
