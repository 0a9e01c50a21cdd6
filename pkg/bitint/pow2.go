// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to size FFT buffers
and to drive the radix-2 butterfly stages.

Usage:

	// Round a 25 ms window at 16 kHz (400 samples) up to the FFT size
	fftSize := bitint.NextPowerOfTwo(400) // Returns 512

	// Reject transform sizes the radix-2 FFT cannot handle
	ok := bitint.IsPowerOfTwo(fftSize)

	// Number of butterfly stages
	stages := bitint.Log2(fftSize) // Returns 9

----------------------------------------------------------------------

NextPowerOfTwo subtracts one before measuring the bit length so that
exact powers of two are preserved:

	size = 8: size-1 = 7 (0111), bits.Len = 3, 1 << 3 = 8
	size = 9: size-1 = 8 (1000), bits.Len = 4, 1 << 4 = 16

Without the subtraction every power of two would be doubled.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
//
// Examples:
//
//	Input  Output
//	400    512
//	512    512
//	1      1
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of n when n is a power of 2,
// and -1 otherwise.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
