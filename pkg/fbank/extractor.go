// SPDX-License-Identifier: MIT
package fbank

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tphakala/simd/f64"
	"golang.org/x/sync/errgroup"
)

// Epsilon floors mel and frame energies before the log. It is the
// float32 machine epsilon, so silent frames map to log(Epsilon).
const Epsilon = 0x1p-23

// DefaultSeed seeds the dither source when no random source is given.
const DefaultSeed uint64 = 0x5eed

// cancelCheckInterval is how many frames are computed between checks of
// the context.
const cancelCheckInterval = 64

// workspace holds the per-goroutine scratch buffers for one frame.
type workspace struct {
	frame    []float64 // windowSize samples
	re, im   []float64 // fftSize spectral buffer
	spectrum []float64 // fftSize/2 power or magnitude values
	energies []float64 // numBins mel energies
}

// Extractor turns a complete waveform into a log-mel feature matrix.
// Construction validates the options and builds the window, FFT tables
// and mel bank once. Extract may be called from several goroutines.
type Extractor struct {
	opts        Options
	windowSize  int
	windowShift int
	fftSize     int
	workers     int

	pre *FramePreprocessor
	fft *SpectralTransform
	mel *MelBank

	pool     sync.Pool  // *workspace
	ditherMu sync.Mutex // serialises use of the dither source
}

// ExtractorOption customises an Extractor.
type ExtractorOption func(*extractorSettings)

type extractorSettings struct {
	rng     *rand.Rand
	workers int
}

// WithRand sets the random source used for dithering.
func WithRand(rng *rand.Rand) ExtractorOption {
	return func(s *extractorSettings) {
		s.rng = rng
	}
}

// WithSeed seeds a PCG dither source.
func WithSeed(seed uint64) ExtractorOption {
	return func(s *extractorSettings) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}
}

// WithWorkers spreads frames across n goroutines when dither is off.
// Values below 2 keep extraction on the calling goroutine.
func WithWorkers(n int) ExtractorOption {
	return func(s *extractorSettings) {
		s.workers = n
	}
}

// Validate checks the frame parameters. Each failure is a distinct
// error wrapping ErrValidation.
func (o Options) Validate() error {
	f := o.Frame
	if size := WindowSize(f); size < 2 {
		return fmt.Errorf("%w: got %d samples", ErrWindowSize, size)
	}
	if shift := WindowShift(f); shift <= 0 {
		return fmt.Errorf("%w: got %d samples", ErrWindowShift, shift)
	}
	if padded := PaddedWindowSize(f); padded%2 == 1 {
		return fmt.Errorf("%w: got %d", ErrPaddedOdd, padded)
	}
	if k := f.PreEmphasisCoeff; !(k >= 0 && k <= 1) {
		return fmt.Errorf("%w: got %g", ErrPreEmphasis, k)
	}
	if !(f.Dither >= 0) {
		return fmt.Errorf("%w: got %g", ErrDither, f.Dither)
	}
	return nil
}

// New validates opts and precomputes everything the frame loop needs.
func New(opts Options, options ...ExtractorOption) (*Extractor, error) {
	settings := extractorSettings{}
	for _, o := range options {
		o(&settings)
	}
	if settings.rng == nil {
		WithSeed(DefaultSeed)(&settings)
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pre, err := NewFramePreprocessor(opts.Frame, settings.rng)
	if err != nil {
		return nil, fmt.Errorf("creating frame preprocessor: %w", err)
	}

	fftSize := PaddedWindowSize(opts.Frame)
	fft, err := NewSpectralTransform(fftSize)
	if err != nil {
		return nil, fmt.Errorf("creating spectral transform: %w", err)
	}

	low, high := opts.Mel.Bounds(opts.Frame.SampleFreq)
	mel, err := BuildMelBank(opts.Frame.SampleFreq, fftSize, opts.Mel.NumBins, low, high)
	if err != nil {
		return nil, fmt.Errorf("building mel bank: %w", err)
	}

	e := &Extractor{
		opts:        opts,
		windowSize:  WindowSize(opts.Frame),
		windowShift: WindowShift(opts.Frame),
		fftSize:     fftSize,
		workers:     settings.workers,
		pre:         pre,
		fft:         fft,
		mel:         mel,
	}
	e.pool.New = func() any {
		return &workspace{
			frame:    make([]float64, e.windowSize),
			re:       make([]float64, e.fftSize),
			im:       make([]float64, e.fftSize),
			spectrum: make([]float64, e.fftSize/2),
			energies: make([]float64, e.mel.NumBins()),
		}
	}
	return e, nil
}

// Options returns the configuration the extractor was built with.
func (e *Extractor) Options() Options { return e.opts }

// WindowSize returns the frame length in samples.
func (e *Extractor) WindowSize() int { return e.windowSize }

// WindowShift returns the hop between frames in samples.
func (e *Extractor) WindowShift() int { return e.windowShift }

// FFTSize returns the padded window size.
func (e *Extractor) FFTSize() int { return e.fftSize }

// MelBank returns the shared, read-only filterbank.
func (e *Extractor) MelBank() *MelBank { return e.mel }

// Dim returns the number of columns of every feature row.
func (e *Extractor) Dim() int {
	if e.opts.UseEnergy {
		return e.mel.NumBins() + 1
	}
	return e.mel.NumBins()
}

// NumFrames returns the number of rows Extract produces for numSamples.
func (e *Extractor) NumFrames(numSamples int) int {
	return NumFrames(e.opts.Frame, numSamples)
}

// Extract computes one feature row per complete frame of wave. A
// waveform shorter than one window yields an empty matrix and no error.
func (e *Extractor) Extract(wave []float32) (Matrix, error) {
	return e.ExtractContext(context.Background(), wave)
}

// ExtractContext is Extract with cancellation checked between frames.
// No partial matrix is returned when ctx ends early.
func (e *Extractor) ExtractContext(ctx context.Context, wave []float32) (Matrix, error) {
	numFrames := e.NumFrames(len(wave))
	if numFrames == 0 {
		return Matrix{}, nil
	}
	out := newMatrix(numFrames, e.Dim())

	var err error
	switch {
	case e.opts.Frame.Dither > 0:
		e.ditherMu.Lock()
		err = e.extractRange(ctx, wave, out, 0, numFrames)
		e.ditherMu.Unlock()
	case e.workers > 1 && numFrames >= 2*e.workers:
		err = e.extractParallel(ctx, wave, out)
	default:
		err = e.extractRange(ctx, wave, out, 0, numFrames)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Extractor) extractParallel(ctx context.Context, wave []float32, out Matrix) error {
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(out) + e.workers - 1) / e.workers
	for start := 0; start < len(out); start += chunk {
		end := min(start+chunk, len(out))
		g.Go(func() error {
			return e.extractRange(ctx, wave, out, start, end)
		})
	}
	return g.Wait()
}

// extractRange fills rows [start, end) of out using one workspace.
func (e *Extractor) extractRange(ctx context.Context, wave []float32, out Matrix, start, end int) error {
	ws := e.pool.Get().(*workspace)
	defer e.pool.Put(ws)

	for i := start; i < end; i++ {
		if (i-start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		e.computeFrame(ws, wave[i*e.windowShift:i*e.windowShift+e.windowSize], out[i])
	}
	return nil
}

// computeFrame turns one window of samples into one feature row.
func (e *Extractor) computeFrame(ws *workspace, samples []float32, row []float32) {
	for k, s := range samples {
		ws.frame[k] = float64(s)
	}
	rawEnergy := e.pre.Process(ws.frame)

	copy(ws.re, ws.frame)
	clear(ws.re[e.windowSize:])
	clear(ws.im)
	e.fft.Transform(ws.re, ws.im)
	e.fft.PowerSpectrum(ws.spectrum, ws.re, ws.im, !e.opts.UsePower)
	e.mel.Apply(ws.energies, ws.spectrum)

	col := row
	if e.opts.UseEnergy {
		energy := rawEnergy
		if !e.opts.RawEnergy {
			energy = f64.DotProduct(ws.frame, ws.frame)
		}
		row[0] = float32(e.logEnergy(energy))
		col = row[1:]
	}

	for j, v := range ws.energies {
		if e.opts.UseLogFbank {
			v = math.Log(max(v, Epsilon))
		}
		col[j] = float32(v)
	}
}

func (e *Extractor) logEnergy(energy float64) float64 {
	logE := math.Log(max(energy, Epsilon))
	if floor := e.opts.EnergyFloor; floor > 0 {
		logE = max(logE, math.Log(floor))
	}
	return logE
}
