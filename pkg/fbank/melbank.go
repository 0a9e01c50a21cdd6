// SPDX-License-Identifier: MIT
package fbank

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
)

// MelBin is one triangular filter stored as a compact run of weights
// over consecutive FFT bins starting at StartBin.
type MelBin struct {
	StartBin int
	Weights  []float64
}

// EndBin returns one past the last FFT bin covered by the filter.
func (b MelBin) EndBin() int {
	return b.StartBin + len(b.Weights)
}

// MelBank is an ordered set of triangular mel filters. It is built once
// and only read afterwards, so it can be shared across goroutines.
type MelBank struct {
	Bins       []MelBin
	Centers    []float64 // center frequency of each filter in Hz
	SampleFreq float64
	FFTSize    int
	LowFreq    float64
	HighFreq   float64
}

// MelScale converts a frequency in Hz to mels.
func MelScale(freq float64) float64 {
	return 2595.0 * math.Log10(1.0+freq/700.0)
}

// InverseMelScale converts mels back to Hz.
func InverseMelScale(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}

// BuildMelBank places numBins+2 equally spaced points on the mel scale
// between lowFreq and highFreq, maps them to fractional FFT bins and
// builds one triangle per consecutive triple. Weights are computed in
// the bin domain over [0, fftSize/2) and trimmed of leading and trailing
// zeros.
func BuildMelBank(sampleFreq float64, fftSize, numBins int, lowFreq, highFreq float64) (*MelBank, error) {
	if numBins <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNumBins, numBins)
	}
	if fftSize < 2 || fftSize%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrFFTSize, fftSize)
	}
	switch {
	case !(sampleFreq > 0):
		return nil, fmt.Errorf("%w: sample frequency %g must be positive", ErrMelBounds, sampleFreq)
	case lowFreq < 0:
		return nil, fmt.Errorf("%w: low frequency %g is negative", ErrMelBounds, lowFreq)
	case !(highFreq > lowFreq):
		return nil, fmt.Errorf("%w: high frequency %g must exceed low frequency %g", ErrMelBounds, highFreq, lowFreq)
	}

	half := fftSize / 2
	melLow, melHigh := MelScale(lowFreq), MelScale(highFreq)
	melDelta := (melHigh - melLow) / float64(numBins+1)

	// Fractional FFT bin of every mel point.
	points := make([]float64, numBins+2)
	for i := range points {
		freq := InverseMelScale(melLow + float64(i)*melDelta)
		points[i] = freq * float64(fftSize) / sampleFreq
	}

	bank := &MelBank{
		Bins:       make([]MelBin, numBins),
		Centers:    make([]float64, numBins),
		SampleFreq: sampleFreq,
		FFTSize:    fftSize,
		LowFreq:    lowFreq,
		HighFreq:   highFreq,
	}

	dense := make([]float64, half)
	for m := range numBins {
		left, center, right := points[m], points[m+1], points[m+2]
		if center < 0 || center >= float64(half) {
			return nil, fmt.Errorf("%w: filter %d center bin %.3f not in [0, %d)", ErrMelSpan, m, center, half)
		}

		first, last := -1, -1
		for k := range dense {
			x := float64(k)
			w := 0.0
			switch {
			case x > left && x <= center:
				w = (x - left) / (center - left)
			case x > center && x < right:
				w = (right - x) / (right - center)
			}
			dense[k] = w
			if w > 0 {
				if first < 0 {
					first = k
				}
				last = k
			}
		}
		if first < 0 {
			return nil, fmt.Errorf("%w: filter %d between bins %.3f and %.3f", ErrEmptyFilter, m, left, right)
		}

		weights := make([]float64, last-first+1)
		copy(weights, dense[first:last+1])
		bank.Bins[m] = MelBin{StartBin: first, Weights: weights}
		bank.Centers[m] = center * sampleFreq / float64(fftSize)
	}

	return bank, nil
}

// NumBins returns the number of filters.
func (b *MelBank) NumBins() int {
	return len(b.Bins)
}

// Apply writes the energy of each filter over spectrum into dst.
// spectrum must hold at least FFTSize/2 values and dst NumBins values.
func (b *MelBank) Apply(dst, spectrum []float64) {
	for j, bin := range b.Bins {
		dst[j] = f64.DotProduct(bin.Weights, spectrum[bin.StartBin:bin.EndBin()])
	}
}
