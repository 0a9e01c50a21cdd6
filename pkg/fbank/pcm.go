// SPDX-License-Identifier: MIT
package fbank

import (
	"encoding/binary"
	"fmt"
)

// pcm16Scale maps signed 16-bit samples onto [-1, 1).
const pcm16Scale = 1.0 / 32768.0

// Int16ToFloat32 converts PCM16 samples to normalised floats.
func Int16ToFloat32(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(float64(s) * pcm16Scale)
	}
	return out
}

// BytesToFloat32 converts little-endian PCM16 bytes to normalised floats.
func BytesToFloat32(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrPCMLength, len(data))
	}
	out := make([]float32, len(data)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(data[2*i:]))
		out[i] = float32(float64(s) * pcm16Scale)
	}
	return out, nil
}

// ExtractPCM16 converts pcm with Int16ToFloat32 and extracts features.
func (e *Extractor) ExtractPCM16(pcm []int16) (Matrix, error) {
	return e.Extract(Int16ToFloat32(pcm))
}

// ExtractBytes converts little-endian PCM16 bytes and extracts features.
func (e *Extractor) ExtractBytes(data []byte) (Matrix, error) {
	wave, err := BytesToFloat32(data)
	if err != nil {
		return nil, err
	}
	return e.Extract(wave)
}
