// SPDX-License-Identifier: MIT
package fbank

import (
	"fmt"
	"math/rand/v2"

	"github.com/tphakala/simd/f64"
)

// FramePreprocessor conditions one frame of raw samples in place:
// dither, DC removal, pre-emphasis, then the analysis window.
//
// The window is read-only after construction. The random source is not,
// so a preprocessor with dither enabled must not be shared between
// goroutines without external locking.
type FramePreprocessor struct {
	opts   FrameOptions
	window []float64
	rng    *rand.Rand
}

// NewFramePreprocessor builds the window for opts. rng supplies the
// dither noise and may be nil when opts.Dither is zero.
func NewFramePreprocessor(opts FrameOptions, rng *rand.Rand) (*FramePreprocessor, error) {
	size := WindowSize(opts)
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d samples", ErrWindowSize, size)
	}
	if opts.Dither > 0 && rng == nil {
		return nil, fmt.Errorf("%w: dither %g requires a random source", ErrDither, opts.Dither)
	}
	win, err := newWindow(size, opts.WindowType)
	if err != nil {
		return nil, err
	}
	return &FramePreprocessor{opts: opts, window: win, rng: rng}, nil
}

// Window returns the analysis window coefficients. The slice must not
// be modified.
func (p *FramePreprocessor) Window() []float64 {
	return p.window
}

// Process mutates frame in place and returns its energy measured after
// dither and DC removal but before pre-emphasis and windowing.
// len(frame) must equal the window size.
func (p *FramePreprocessor) Process(frame []float64) float64 {
	if p.opts.Dither > 0 {
		for i := range frame {
			frame[i] += p.opts.Dither * p.rng.NormFloat64()
		}
	}

	if p.opts.RemoveDCOffset {
		mean := f64.Sum(frame) / float64(len(frame))
		for i := range frame {
			frame[i] -= mean
		}
	}

	rawEnergy := f64.DotProduct(frame, frame)

	if k := p.opts.PreEmphasisCoeff; k > 0 {
		for i := len(frame) - 1; i > 0; i-- {
			frame[i] -= k * frame[i-1]
		}
		frame[0] *= 1 - k
	}

	for i, w := range p.window {
		frame[i] *= w
	}

	return rawEnergy
}
