// SPDX-License-Identifier: MIT
package fbank

import (
	"fmt"
	"testing"

	"fbank/pkg/bitint"
)

func TestDerivedSizes(t *testing.T) {
	tests := []struct {
		sampleFreq float64
		lengthMs   float64
		shiftMs    float64
		round      bool
		size       int
		shift      int
		padded     int
	}{
		{16000, 25, 10, true, 400, 160, 512},
		{16000, 25, 10, false, 400, 160, 400},
		{16000, 32, 10, true, 512, 160, 512},
		{8000, 25, 10, true, 200, 80, 256},
		{44100, 25, 10, true, 1103, 441, 2048},
		{16000, 0.0625, 10, true, 1, 160, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g/%g/%g/%v", tt.sampleFreq, tt.lengthMs, tt.shiftMs, tt.round), func(t *testing.T) {
			o := FrameOptions{
				SampleFreq:        tt.sampleFreq,
				FrameLengthMs:     tt.lengthMs,
				FrameShiftMs:      tt.shiftMs,
				RoundToPowerOfTwo: tt.round,
			}
			if got := WindowSize(o); got != tt.size {
				t.Errorf("WindowSize() = %d, expected %d", got, tt.size)
			}
			if got := WindowShift(o); got != tt.shift {
				t.Errorf("WindowShift() = %d, expected %d", got, tt.shift)
			}
			padded := PaddedWindowSize(o)
			if padded != tt.padded {
				t.Errorf("PaddedWindowSize() = %d, expected %d", padded, tt.padded)
			}
			if !tt.round && padded != WindowSize(o) {
				t.Errorf("PaddedWindowSize() = %d without rounding, expected window size %d", padded, WindowSize(o))
			}
			if tt.round && !bitint.IsPowerOfTwo(padded) {
				t.Errorf("PaddedWindowSize() = %d is not a power of two", padded)
			}
		})
	}
}

func TestNumFrames(t *testing.T) {
	o := DefaultOptions().Frame

	tests := []struct {
		samples  int
		expected int
	}{
		{0, 0},
		{399, 0},
		{400, 1},
		{559, 1},
		{560, 2},
		{1600, 8},
		{16000, 98},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.samples, tt.expected), func(t *testing.T) {
			if got := NumFrames(o, tt.samples); got != tt.expected {
				t.Errorf("NumFrames(%d) = %d, expected %d", tt.samples, got, tt.expected)
			}
			want := 0
			if tt.samples >= 400 {
				want = 1 + (tt.samples-400)/160
			}
			if got := NumFrames(o, tt.samples); got != want {
				t.Errorf("NumFrames(%d) = %d, formula gives %d", tt.samples, got, want)
			}
		})
	}
}

func TestNumFramesNonPositiveShift(t *testing.T) {
	o := DefaultOptions().Frame
	o.FrameShiftMs = 0
	if got := NumFrames(o, 16000); got != 0 {
		t.Errorf("NumFrames() with zero shift = %d, expected 0", got)
	}
}

func TestMelBounds(t *testing.T) {
	tests := []struct {
		high     float64
		expected float64
	}{
		{0, 8000},
		{-400, 7600},
		{7000, 7000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g→%g", tt.high, tt.expected), func(t *testing.T) {
			low, high := MelOptions{NumBins: 80, LowFreq: 20, HighFreq: tt.high}.Bounds(16000)
			if low != 20 {
				t.Errorf("Bounds() low = %g, expected 20", low)
			}
			if high != tt.expected {
				t.Errorf("Bounds() high = %g, expected %g", high, tt.expected)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("DefaultOptions().Validate() = %v", err)
	}
	if o.Frame.WindowType != Povey {
		t.Errorf("default window = %v, expected povey", o.Frame.WindowType)
	}
	if o.Mel.NumBins != 80 {
		t.Errorf("default bins = %d, expected 80", o.Mel.NumBins)
	}
	if o.Frame.Dither != 0 {
		t.Errorf("default dither = %g, expected 0", o.Frame.Dither)
	}
}
