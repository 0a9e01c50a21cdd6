// SPDX-License-Identifier: MIT

// Package embedding turns FBANK feature matrices into speaker embeddings
// and compares them.
//
// The neural network itself stays behind the Model interface; any
// runtime (ONNX, a remote service, a test double) can implement it.
// StatsPooling is a small built-in Model that needs no weights.
package embedding

import (
	"errors"
	"fmt"
	"math"

	"fbank/pkg/fbank"
)

var (
	ErrEmptyFeatures     = errors.New("embedding: feature matrix has no frames")
	ErrEmptyVector       = errors.New("embedding: vector is empty")
	ErrDimensionMismatch = errors.New("embedding: dimension mismatch")
	ErrClosed            = errors.New("embedding: speaker is closed")
)

// Model maps a frames × bins feature matrix to a fixed-length vector.
type Model interface {
	Embed(feats fbank.Matrix) ([]float32, error)
	Dimension() int
	Close() error
}

// StatsPooling concatenates the per-bin mean and standard deviation over
// all frames, the pooling layer of x-vector style networks without the
// layers around it.
type StatsPooling struct {
	bins int
}

var _ Model = (*StatsPooling)(nil)

// NewStatsPooling returns a pooling model for bins-wide features.
func NewStatsPooling(bins int) *StatsPooling {
	return &StatsPooling{bins: bins}
}

// Dimension returns 2*bins.
func (p *StatsPooling) Dimension() int {
	return 2 * p.bins
}

// Embed returns [mean..., std...] over the frames of feats.
func (p *StatsPooling) Embed(feats fbank.Matrix) ([]float32, error) {
	if feats.Rows() == 0 {
		return nil, ErrEmptyFeatures
	}
	if feats.Cols() != p.bins {
		return nil, fmt.Errorf("%w: features have %d bins, model expects %d", ErrDimensionMismatch, feats.Cols(), p.bins)
	}

	sum := make([]float64, p.bins)
	sq := make([]float64, p.bins)
	for _, row := range feats {
		for j, v := range row {
			sum[j] += float64(v)
			sq[j] += float64(v) * float64(v)
		}
	}

	n := float64(feats.Rows())
	out := make([]float32, 2*p.bins)
	for j := range p.bins {
		mean := sum[j] / n
		out[j] = float32(mean)
		out[p.bins+j] = float32(math.Sqrt(max(sq[j]/n-mean*mean, 0)))
	}
	return out, nil
}

// Close is a no-op.
func (p *StatsPooling) Close() error {
	return nil
}
