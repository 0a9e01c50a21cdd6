// SPDX-License-Identifier: MIT
package fbank

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them, so
// callers can branch on the kind with errors.Is and still report the
// precise cause.
var (
	// ErrConfig reports filter or transform parameters that cannot be built.
	ErrConfig = errors.New("fbank: invalid configuration")
	// ErrValidation reports frame parameters or input rejected before any
	// numeric work is done.
	ErrValidation = errors.New("fbank: validation failed")
)

// Configuration errors.
var (
	ErrNumBins     = fmt.Errorf("%w: number of mel bins must be positive", ErrConfig)
	ErrMelBounds   = fmt.Errorf("%w: mel frequency bounds are inconsistent", ErrConfig)
	ErrMelSpan     = fmt.Errorf("%w: mel center falls outside the half spectrum", ErrConfig)
	ErrEmptyFilter = fmt.Errorf("%w: mel filter has no support at this fft size", ErrConfig)
	ErrFFTSize     = fmt.Errorf("%w: fft size must be a power of 2 and at least 2", ErrConfig)
	ErrWindowType  = fmt.Errorf("%w: unknown window type", ErrConfig)
)

// Validation errors.
var (
	ErrWindowSize  = fmt.Errorf("%w: window size must be at least 2 samples", ErrValidation)
	ErrWindowShift = fmt.Errorf("%w: window shift must be positive", ErrValidation)
	ErrPaddedOdd   = fmt.Errorf("%w: padded window size must be even", ErrValidation)
	ErrPreEmphasis = fmt.Errorf("%w: pre-emphasis coefficient must lie in [0, 1]", ErrValidation)
	ErrDither      = fmt.Errorf("%w: dither must not be negative", ErrValidation)
	ErrPCMLength   = fmt.Errorf("%w: pcm16 byte length must be even", ErrValidation)
)
