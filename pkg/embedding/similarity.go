// SPDX-License-Identifier: MIT
package embedding

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f32"
)

// normFloor guards L2 normalisation of near-zero vectors.
const normFloor = 1e-10

func checkPair(a, b []float32) error {
	if len(a) == 0 || len(b) == 0 {
		return ErrEmptyVector
	}
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// Normalize returns v scaled to unit L2 norm. Vectors with a norm below
// 1e-10 are returned unscaled.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	if len(v) == 0 {
		return out
	}
	norm := math.Sqrt(float64(f32.DotProductUnsafe(v, v)))
	if norm < normFloor {
		norm = 1
	}
	f32.Scale(out, v, float32(1/norm))
	return out
}

// CosineSimilarity returns a·b / (|a||b|) in [-1, 1], or 0 when either
// vector is all zeros.
func CosineSimilarity(a, b []float32) (float32, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	dot := float64(f32.DotProductUnsafe(a, b))
	na := float64(f32.DotProductUnsafe(a, a))
	nb := float64(f32.DotProductUnsafe(b, b))
	if na <= 0 || nb <= 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb))), nil
}

// L2Distance returns the Euclidean distance between a and b.
func L2Distance(a, b []float32) (float32, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum)), nil
}

// HybridSimilarity blends cosine similarity with exp(-L2 distance):
// w*cos + (1-w)*exp(-l2). w is clamped to [0, 1].
func HybridSimilarity(a, b []float32, cosineWeight float32) (float32, error) {
	cosine, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	l2, err := L2Distance(a, b)
	if err != nil {
		return 0, err
	}
	w := min(max(cosineWeight, 0), 1)
	return w*cosine + (1-w)*float32(math.Exp(-float64(l2))), nil
}
