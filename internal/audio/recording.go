// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotRecording is returned by Write before Start or after Stop.
var ErrNotRecording = errors.New("audio: recorder is not running")

// Recorder streams PCM16 chunks into a mono WAV file.
type Recorder struct {
	mu         sync.Mutex
	sampleRate int
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer
}

// NewRecorder returns a stopped recorder for sampleRate audio.
func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate}
}

// Start creates filename and prepares the encoder.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder != nil {
		return fmt.Errorf("already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file

	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, 16, 1, wavPCM)

	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: 16,
	}

	return nil
}

// Recording reports whether Start has been called without a matching Stop.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wavEncoder != nil
}

// Write appends samples to the file.
func (r *Recorder) Write(samples []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder == nil {
		return ErrNotRecording
	}

	// Reuse the buffer between chunks.
	data := r.sampleBuf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	r.sampleBuf.Data = data

	return r.wavEncoder.Write(r.sampleBuf)
}

// Stop finalises the WAV header and closes the file. Stopping a stopped
// recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.wavEncoder == nil {
		return nil
	}

	encErr := r.wavEncoder.Close()
	r.wavEncoder = nil
	fileErr := r.outputFile.Close()
	r.outputFile = nil

	if encErr != nil {
		return encErr
	}
	return fileErr
}

// WriteFile writes pcm to filename as a mono 16-bit WAV.
func WriteFile(filename string, pcm []int16, sampleRate int) error {
	rec := NewRecorder(sampleRate)
	if err := rec.Start(filename); err != nil {
		return err
	}
	if err := rec.Write(pcm); err != nil {
		_ = rec.Stop()
		return err
	}
	return rec.Stop()
}
