// SPDX-License-Identifier: MIT
package fbank

import (
	"errors"
	"testing"

	"fbank/pkg/utils"
)

func TestInt16ToFloat32(t *testing.T) {
	got := Int16ToFloat32([]int16{0, -32768, 16384, 32767})
	want := []float32{0, -1, 0.5, float32(32767.0 / 32768.0)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %g, expected %g", i, got[i], want[i])
		}
	}
}

func TestBytesToFloat32(t *testing.T) {
	got, err := BytesToFloat32([]byte{0x00, 0x40, 0x00, 0x80, 0xff, 0xff})
	if err != nil {
		t.Fatalf("BytesToFloat32() error = %v", err)
	}
	want := []float32{0.5, -1, float32(-1.0 / 32768.0)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %g, expected %g", i, got[i], want[i])
		}
	}

	if _, err := BytesToFloat32([]byte{1, 2, 3}); !errors.Is(err, ErrPCMLength) || !errors.Is(err, ErrValidation) {
		t.Errorf("odd length error = %v, expected ErrPCMLength", err)
	}
}

func TestExtractPCM16MatchesFloat(t *testing.T) {
	e := newTestExtractor(t, DefaultOptions())
	pcm := utils.GenerateSineWavePCM16(4000, testSampleRate, 440)

	fromPCM, err := e.ExtractPCM16(pcm)
	if err != nil {
		t.Fatalf("ExtractPCM16() error = %v", err)
	}
	fromFloat, err := e.Extract(Int16ToFloat32(pcm))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	assertMatrixEqual(t, fromPCM, fromFloat)

	raw := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		raw[2*i] = byte(uint16(s))
		raw[2*i+1] = byte(uint16(s) >> 8)
	}
	fromBytes, err := e.ExtractBytes(raw)
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	assertMatrixEqual(t, fromBytes, fromFloat)
}
