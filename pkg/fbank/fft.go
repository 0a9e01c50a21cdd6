// SPDX-License-Identifier: MIT
package fbank

import (
	"fmt"
	"math"
	"math/bits"

	"fbank/pkg/bitint"
)

// SpectralTransform is a fixed-size, in-place, radix-2
// decimation-in-time FFT. The permutation and twiddle tables are built
// once and never written again, so one transform can serve any number
// of goroutines as long as each passes its own buffers.
type SpectralTransform struct {
	size   int
	bitrev []int
	// sintbl[i] = sin(2*pi*i/tbl) for i in [0, tbl+tbl/4), where tbl is
	// size but at least 4 so the quarter-period cosine offset exists.
	// cos(2*pi*i/tbl) is read at sintbl[i+tbl/4].
	sintbl []float64
	tbl    int
}

// NewSpectralTransform precomputes the tables for a size-point FFT.
func NewSpectralTransform(size int) (*SpectralTransform, error) {
	if size < 2 || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: got %d", ErrFFTSize, size)
	}

	shift := bits.UintSize - bitint.Log2(size)
	bitrev := make([]int, size)
	for i := range bitrev {
		bitrev[i] = int(bits.Reverse(uint(i)) >> shift)
	}

	tbl := max(size, 4)
	sintbl := make([]float64, tbl+tbl/4)
	for i := range sintbl {
		sintbl[i] = math.Sin(2 * math.Pi * float64(i) / float64(tbl))
	}

	return &SpectralTransform{size: size, bitrev: bitrev, sintbl: sintbl, tbl: tbl}, nil
}

// Size returns the number of points.
func (t *SpectralTransform) Size() int {
	return t.size
}

// Transform replaces (re, im) with its forward DFT in natural order.
// Both slices must have length Size().
func (t *SpectralTransform) Transform(re, im []float64) {
	n := t.size
	re, im = re[:n], im[:n]

	for i, j := range t.bitrev {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	quarter := t.tbl / 4
	for span := 1; span < n; span *= 2 {
		step := t.tbl / (2 * span)
		h := 0
		for j := range span {
			c := t.sintbl[h+quarter]
			s := t.sintbl[h]
			for i := j; i < n; i += 2 * span {
				k := i + span
				dx := s*im[k] + c*re[k]
				dy := c*im[k] - s*re[k]
				re[k] = re[i] - dx
				re[i] += dx
				im[k] = im[i] - dy
				im[i] += dy
			}
			h += step
		}
	}
}

// PowerSpectrum writes re²+im² of the first len(dst) bins into dst, or
// the magnitude when magnitude is true. len(dst) is normally Size()/2.
func (t *SpectralTransform) PowerSpectrum(dst, re, im []float64, magnitude bool) {
	for i := range dst {
		p := re[i]*re[i] + im[i]*im[i]
		if magnitude {
			p = math.Sqrt(p)
		}
		dst[i] = p
	}
}
