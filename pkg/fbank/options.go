// SPDX-License-Identifier: MIT
package fbank

import (
	"math"

	"fbank/pkg/bitint"
)

// Defaults match the Kaldi-compatible front-end most speaker models are
// trained with.
const (
	DefaultSampleFreq    = 16000.0
	DefaultFrameShiftMs  = 10.0
	DefaultFrameLengthMs = 25.0
	DefaultPreEmphasis   = 0.97
	DefaultNumBins       = 80
	DefaultLowFreq       = 20.0
	DefaultHighFreq      = 0.0 // Nyquist
)

// FrameOptions describes how a waveform is cut into analysis frames.
// It is a plain value; the derived sizes are computed by the free
// functions below and are checked by Options.Validate.
type FrameOptions struct {
	SampleFreq        float64    // Hz
	FrameShiftMs      float64    // hop between frame starts
	FrameLengthMs     float64    // analysis window length
	Dither            float64    // gaussian noise amplitude, 0 disables
	PreEmphasisCoeff  float64    // first-order high-pass coefficient in [0, 1]
	RemoveDCOffset    bool       // subtract the frame mean before pre-emphasis
	WindowType        WindowType // analysis window shape
	RoundToPowerOfTwo bool       // pad the FFT input to the next power of 2
}

// MelOptions describes the triangular filterbank.
type MelOptions struct {
	NumBins  int
	LowFreq  float64 // Hz
	HighFreq float64 // Hz; <= 0 is an offset from Nyquist
}

// Options is the complete extractor configuration.
type Options struct {
	Frame       FrameOptions
	Mel         MelOptions
	UsePower    bool    // power spectrum when true, magnitude when false
	UseLogFbank bool    // natural log of the floored mel energies
	UseEnergy   bool    // prepend a log-energy column
	RawEnergy   bool    // measure energy before pre-emphasis and windowing
	EnergyFloor float64 // floor for the energy column, 0 disables
}

// DefaultOptions returns the 80-bin, 25 ms / 10 ms configuration.
func DefaultOptions() Options {
	return Options{
		Frame: FrameOptions{
			SampleFreq:        DefaultSampleFreq,
			FrameShiftMs:      DefaultFrameShiftMs,
			FrameLengthMs:     DefaultFrameLengthMs,
			PreEmphasisCoeff:  DefaultPreEmphasis,
			RemoveDCOffset:    true,
			WindowType:        Povey,
			RoundToPowerOfTwo: true,
		},
		Mel: MelOptions{
			NumBins:  DefaultNumBins,
			LowFreq:  DefaultLowFreq,
			HighFreq: DefaultHighFreq,
		},
		UsePower:    true,
		UseLogFbank: true,
		RawEnergy:   true,
	}
}

// WindowShift returns the hop between frames in samples.
func WindowShift(o FrameOptions) int {
	return int(math.Round(o.SampleFreq * 0.001 * o.FrameShiftMs))
}

// WindowSize returns the analysis window length in samples.
func WindowSize(o FrameOptions) int {
	return int(math.Round(o.SampleFreq * 0.001 * o.FrameLengthMs))
}

// PaddedWindowSize returns the FFT input length.
func PaddedWindowSize(o FrameOptions) int {
	if o.RoundToPowerOfTwo {
		return bitint.NextPowerOfTwo(WindowSize(o))
	}
	return WindowSize(o)
}

// NumFrames returns how many complete frames fit in numSamples.
func NumFrames(o FrameOptions, numSamples int) int {
	size, shift := WindowSize(o), WindowShift(o)
	if shift <= 0 || size <= 0 || numSamples < size {
		return 0
	}
	return 1 + (numSamples-size)/shift
}

// Bounds resolves the filterbank edges for a sample rate.
// A non-positive HighFreq is taken relative to Nyquist.
func (m MelOptions) Bounds(sampleFreq float64) (low, high float64) {
	nyquist := 0.5 * sampleFreq
	high = m.HighFreq
	if high <= 0 {
		high += nyquist
	}
	return m.LowFreq, high
}
