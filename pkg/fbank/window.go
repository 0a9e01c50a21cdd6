// SPDX-License-Identifier: MIT
package fbank

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowType selects the analysis window applied to every frame.
type WindowType int

// Available window shapes. Povey is the zero value and the default.
const (
	Povey WindowType = iota // Hann raised to 0.85
	Hamming
	Hanning
	Blackman
	Rectangular
)

// poveyExponent is the power applied to the Hann window.
const poveyExponent = 0.85

// String returns the configuration name of the window.
func (w WindowType) String() string {
	switch w {
	case Povey:
		return "povey"
	case Hamming:
		return "hamming"
	case Hanning:
		return "hanning"
	case Blackman:
		return "blackman"
	case Rectangular:
		return "rectangular"
	default:
		return fmt.Sprintf("WindowType(%d)", int(w))
	}
}

// ParseWindowType converts a name (case-insensitive) to a WindowType.
// Unknown names return Povey and an error wrapping ErrWindowType.
func ParseWindowType(name string) (WindowType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "povey", "":
		return Povey, nil
	case "hamming":
		return Hamming, nil
	case "hanning", "hann":
		return Hanning, nil
	case "blackman":
		return Blackman, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Povey, fmt.Errorf("%w: %q", ErrWindowType, name)
	}
}

// newWindow returns size coefficients for the window type.
func newWindow(size int, windowType WindowType) ([]float64, error) {
	coeffs := make([]float64, size)
	// gonum windows scale the slice in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Povey:
		window.Hann(coeffs)
		for i, v := range coeffs {
			coeffs[i] = math.Pow(v, poveyExponent)
		}
	case Hamming:
		window.Hamming(coeffs)
	case Hanning:
		window.Hann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Rectangular:
	default:
		return nil, fmt.Errorf("%w: %d", ErrWindowType, int(windowType))
	}
	return coeffs, nil
}
