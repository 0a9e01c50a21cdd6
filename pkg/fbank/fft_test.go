// SPDX-License-Identifier: MIT
package fbank

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

const testFFTSize = 512

func TestNewSpectralTransformRejectsSize(t *testing.T) {
	for _, n := range []int{-2, 0, 1, 3, 400, 513} {
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			tr, err := NewSpectralTransform(n)
			if tr != nil || !errors.Is(err, ErrFFTSize) || !errors.Is(err, ErrConfig) {
				t.Errorf("NewSpectralTransform(%d) = %v, %v; expected ErrFFTSize", n, tr, err)
			}
		})
	}
}

func TestTransformMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for _, n := range []int{2, 4, 8, 64, 512, 1024} {
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			tr, err := NewSpectralTransform(n)
			if err != nil {
				t.Fatalf("NewSpectralTransform(%d) error = %v", n, err)
			}

			re := make([]float64, n)
			im := make([]float64, n)
			seq := make([]complex128, n)
			for i := range n {
				re[i] = rng.Float64()*2 - 1
				im[i] = rng.Float64()*2 - 1
				seq[i] = complex(re[i], im[i])
			}

			want := fourier.NewCmplxFFT(n).Coefficients(nil, seq)
			tr.Transform(re, im)

			tol := 1e-9 * float64(n)
			for k := range n {
				if d := cmplx.Abs(complex(re[k], im[k]) - want[k]); d > tol {
					t.Fatalf("bin %d = (%g, %g), expected %v (|diff| %g)", k, re[k], im[k], want[k], d)
				}
			}
		})
	}
}

func TestTransformDCComponent(t *testing.T) {
	tr, err := NewSpectralTransform(testFFTSize)
	if err != nil {
		t.Fatalf("NewSpectralTransform() error = %v", err)
	}

	// 400 real samples, zero padded to 512.
	re := make([]float64, testFFTSize)
	im := make([]float64, testFFTSize)
	sum := 0.0
	for i := range 400 {
		re[i] = math.Sin(float64(i)*0.37) + 0.25
		sum += re[i]
	}

	tr.Transform(re, im)

	if got := math.Hypot(re[0], im[0]); math.Abs(got-math.Abs(sum)) > 1e-9 {
		t.Errorf("|X[0]| = %g, expected |sum| = %g", got, math.Abs(sum))
	}
}

func TestTransformSinePeak(t *testing.T) {
	tr, err := NewSpectralTransform(testFFTSize)
	if err != nil {
		t.Fatalf("NewSpectralTransform() error = %v", err)
	}

	// 1 kHz at 16 kHz lands exactly on bin 32 of a 512-point FFT.
	re := make([]float64, testFFTSize)
	im := make([]float64, testFFTSize)
	for i := range re {
		re[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / 16000)
	}
	tr.Transform(re, im)

	power := make([]float64, testFFTSize/2)
	tr.PowerSpectrum(power, re, im, false)

	peak := 0
	for k, p := range power {
		if p > power[peak] {
			peak = k
		}
	}
	if peak != 32 {
		t.Errorf("peak bin = %d, expected 32", peak)
	}
	// A full-scale sine puts (N/2)² into its bin.
	if want := float64(testFFTSize*testFFTSize) / 4; math.Abs(power[32]-want) > 1e-6*want {
		t.Errorf("peak power = %g, expected %g", power[32], want)
	}
}

func TestPowerSpectrumMagnitude(t *testing.T) {
	tr, err := NewSpectralTransform(4)
	if err != nil {
		t.Fatalf("NewSpectralTransform() error = %v", err)
	}
	re := []float64{3, 0, 1, 2}
	im := []float64{4, 2, 0, 2}

	power := make([]float64, 2)
	tr.PowerSpectrum(power, re, im, false)
	if power[0] != 25 || power[1] != 4 {
		t.Errorf("power = %v, expected [25 4]", power)
	}

	mag := make([]float64, 2)
	tr.PowerSpectrum(mag, re, im, true)
	if mag[0] != 5 || mag[1] != 2 {
		t.Errorf("magnitude = %v, expected [5 2]", mag)
	}
}

func TestTransformZeroAllocs(t *testing.T) {
	tr, err := NewSpectralTransform(testFFTSize)
	if err != nil {
		t.Fatalf("NewSpectralTransform() error = %v", err)
	}
	re := make([]float64, testFFTSize)
	im := make([]float64, testFFTSize)
	power := make([]float64, testFFTSize/2)

	allocs := testing.AllocsPerRun(100, func() {
		tr.Transform(re, im)
		tr.PowerSpectrum(power, re, im, false)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Transform, got %.1f", allocs)
	}
}

func BenchmarkTransform(b *testing.B) {
	tr, err := NewSpectralTransform(testFFTSize)
	if err != nil {
		b.Fatal(err)
	}
	src := make([]float64, testFFTSize)
	for i := range 400 {
		src[i] = math.Sin(float64(i) * 0.1)
	}
	re := make([]float64, testFFTSize)
	im := make([]float64, testFFTSize)

	b.ReportAllocs()
	for b.Loop() {
		copy(re, src)
		clear(im)
		tr.Transform(re, im)
	}
}
