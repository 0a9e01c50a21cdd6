// SPDX-License-Identifier: MIT

// Package utils holds signal generators and fakes shared by tests and
// benchmarks across the module.
package utils

import (
	"math"
	"math/rand/v2"
	"sync"
)

// MockTransport records every payload it is sent instead of
// transmitting it.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Messages returns a snapshot of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// GenerateComplexWave returns a 440 Hz fundamental plus two harmonics
// in [-0.9, 0.9].
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a sine of the given frequency with
// amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// GenerateSineWavePCM16 returns GenerateSineWave quantised to int16.
func GenerateSineWavePCM16(size int, sampleRate, frequency float64) []int16 {
	wave := GenerateSineWave(size, sampleRate, frequency)
	pcm := make([]int16, size)
	for i, v := range wave {
		pcm[i] = int16(math.Round(float64(v) * math.MaxInt16))
	}
	return pcm
}

// GenerateNoise returns reproducible uniform noise in
// [-amplitude, amplitude).
func GenerateNoise(size int, seed uint64, amplitude float64) []float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	buffer := make([]float32, size)
	for i := range buffer {
		buffer[i] = float32((2*rng.Float64() - 1) * amplitude)
	}
	return buffer
}

// FindPeakBin returns the index of the largest value in
// values[startBin..endBin], clamping the range to the slice.
func FindPeakBin(values []float32, startBin, endBin int) int {
	if len(values) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(values) {
		endBin = len(values) - 1
	}

	peakBin := startBin
	peakValue := values[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if values[bin] > peakValue {
			peakValue = values[bin]
			peakBin = bin
		}
	}

	return peakBin
}
