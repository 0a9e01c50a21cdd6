// SPDX-License-Identifier: MIT
package fbank

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// stdFloor keeps CMVN finite on constant columns.
const stdFloor = 1e-10

// Matrix is a frames × features matrix. Rows of a Matrix returned by
// Extract share one contiguous backing array.
type Matrix [][]float32

func newMatrix(rows, cols int) Matrix {
	backing := make([]float32, rows*cols)
	m := make(Matrix, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// Rows returns the number of frames.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the feature dimension, or 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Flatten returns the rows concatenated in frame order.
func (m Matrix) Flatten() []float32 {
	out := make([]float32, 0, m.Rows()*m.Cols())
	for _, row := range m {
		out = append(out, row...)
	}
	return out
}

// SubtractMean applies cepstral mean normalisation in place: every
// column is shifted to zero mean over all frames.
func (m Matrix) SubtractMean() {
	m.normalize(false)
}

// CMVN applies mean and variance normalisation in place: every column
// is shifted to zero mean and scaled to unit population variance.
func (m Matrix) CMVN() {
	m.normalize(true)
}

func (m Matrix) normalize(scale bool) {
	rows, cols := m.Rows(), m.Cols()
	if rows == 0 {
		return
	}
	column := make([]float64, rows)
	for j := range cols {
		for i, row := range m {
			column[i] = float64(row[j])
		}
		mean := stat.Mean(column, nil)
		floats.AddConst(-mean, column)
		if scale {
			std := floats.Norm(column, 2) / math.Sqrt(float64(rows))
			floats.Scale(1/max(std, stdFloor), column)
		}
		for i, row := range m {
			row[j] = float32(column[i])
		}
	}
}
