// SPDX-License-Identifier: MIT
package fbank

import (
	"math"
	"testing"
)

func testMatrix() Matrix {
	m := newMatrix(4, 3)
	for i := range m {
		m[i][0] = float32(i)      // 0 1 2 3
		m[i][1] = float32(10 * i) // 0 10 20 30
		m[i][2] = 7               // constant
	}
	return m
}

func TestMatrixShape(t *testing.T) {
	m := testMatrix()
	if m.Rows() != 4 || m.Cols() != 3 {
		t.Errorf("shape %dx%d, expected 4x3", m.Rows(), m.Cols())
	}
	if (Matrix{}).Cols() != 0 || (Matrix{}).Rows() != 0 {
		t.Error("empty matrix should be 0x0")
	}

	// Rows must not grow into their neighbours.
	m[0] = append(m[0], 99)
	if m[1][0] != 1 {
		t.Errorf("append to row 0 overwrote row 1: %v", m[1])
	}
}

func TestMatrixFlatten(t *testing.T) {
	flat := testMatrix().Flatten()
	want := []float32{0, 0, 7, 1, 10, 7, 2, 20, 7, 3, 30, 7}
	if len(flat) != len(want) {
		t.Fatalf("len = %d, expected %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Fatalf("Flatten() = %v, expected %v", flat, want)
		}
	}
	if got := (Matrix{}).Flatten(); len(got) != 0 {
		t.Errorf("Flatten() of empty matrix = %v", got)
	}
}

func TestMatrixSubtractMean(t *testing.T) {
	m := testMatrix()
	m.SubtractMean()

	want := [][]float32{
		{-1.5, -15, 0},
		{-0.5, -5, 0},
		{0.5, 5, 0},
		{1.5, 15, 0},
	}
	for i := range want {
		for j := range want[i] {
			if m[i][j] != want[i][j] {
				t.Fatalf("[%d][%d] = %g, expected %g", i, j, m[i][j], want[i][j])
			}
		}
	}
}

func TestMatrixCMVN(t *testing.T) {
	m := testMatrix()
	m.CMVN()

	for j := range m.Cols() {
		var sum, sq float64
		for _, row := range m {
			v := float64(row[j])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("column %d contains %g", j, v)
			}
			sum += v
			sq += v * v
		}
		mean := sum / float64(m.Rows())
		variance := sq/float64(m.Rows()) - mean*mean
		if math.Abs(mean) > 1e-6 {
			t.Errorf("column %d mean = %g, expected 0", j, mean)
		}
		wantVar := 1.0
		if j == 2 {
			wantVar = 0 // constant column stays at zero
		}
		if math.Abs(variance-wantVar) > 1e-5 {
			t.Errorf("column %d variance = %g, expected %g", j, variance, wantVar)
		}
	}
}

func TestMatrixNormalizeEmpty(t *testing.T) {
	var m Matrix
	m.SubtractMean()
	m.CMVN()
}
