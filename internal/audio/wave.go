// SPDX-License-Identifier: MIT

// Package audio loads waveforms for feature extraction and writes them
// back out as WAV files.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"

	"fbank/pkg/fbank"
)

// ErrUnsupportedFormat is returned for WAV files that are not mono
// 16-bit PCM at the requested sample rate. Resampling and downmixing
// belong upstream.
var ErrUnsupportedFormat = errors.New("audio: unsupported wav format")

// Container identifies where a waveform came from.
type Container string

const (
	ContainerWAV Container = "wav"
	ContainerRaw Container = "raw"
)

// Info describes a decoded waveform.
type Info struct {
	Container  Container
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    int
}

// wavPCM is the WAVE_FORMAT_PCM tag.
const wavPCM = 1

// Decode turns data into normalised samples. RIFF data goes through
// DecodeWAV; anything else is read as headerless little-endian PCM16
// at sampleRate.
func Decode(data []byte, sampleRate int) ([]float32, Info, error) {
	if isRIFF(data) {
		return DecodeWAV(bytes.NewReader(data), sampleRate)
	}
	return DecodeRawPCM16(data, sampleRate)
}

// DecodePCM16 is Decode without the conversion to floats.
func DecodePCM16(data []byte, sampleRate int) ([]int16, Info, error) {
	if isRIFF(data) {
		return decodeWAV(bytes.NewReader(data), sampleRate)
	}
	if len(data)%2 != 0 {
		return nil, Info{}, fmt.Errorf("%w: got %d bytes", fbank.ErrPCMLength, len(data))
	}
	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return pcm, rawInfo(len(pcm), sampleRate), nil
}

// DecodeWAV reads a whole WAV stream. It must be mono 16-bit PCM at
// sampleRate.
func DecodeWAV(r io.ReadSeeker, sampleRate int) ([]float32, Info, error) {
	pcm, info, err := decodeWAV(r, sampleRate)
	if err != nil {
		return nil, info, err
	}
	return fbank.Int16ToFloat32(pcm), info, nil
}

func decodeWAV(r io.ReadSeeker, sampleRate int) ([]int16, Info, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, Info{}, fmt.Errorf("%w: not a valid wav stream", ErrUnsupportedFormat)
	}

	info := Info{
		Container:  ContainerWAV,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	switch {
	case dec.WavAudioFormat != wavPCM:
		return nil, info, fmt.Errorf("%w: audio format tag %d, want PCM", ErrUnsupportedFormat, dec.WavAudioFormat)
	case info.Channels != 1:
		return nil, info, fmt.Errorf("%w: %d channels, want mono", ErrUnsupportedFormat, info.Channels)
	case info.BitDepth != 16:
		return nil, info, fmt.Errorf("%w: %d-bit samples, want 16-bit", ErrUnsupportedFormat, info.BitDepth)
	case info.SampleRate != sampleRate:
		return nil, info, fmt.Errorf("%w: %d Hz, want %d Hz", ErrUnsupportedFormat, info.SampleRate, sampleRate)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, info, fmt.Errorf("reading wav samples: %w", err)
	}

	pcm := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		pcm[i] = int16(s)
	}
	info.Samples = len(pcm)
	return pcm, info, nil
}

// DecodeRawPCM16 reads headerless little-endian PCM16.
func DecodeRawPCM16(data []byte, sampleRate int) ([]float32, Info, error) {
	samples, err := fbank.BytesToFloat32(data)
	if err != nil {
		return nil, Info{}, err
	}
	return samples, rawInfo(len(samples), sampleRate), nil
}

func rawInfo(samples, sampleRate int) Info {
	return Info{
		Container:  ContainerRaw,
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   16,
		Samples:    samples,
	}
}

// ReadFile decodes the file at path, or stdin when path is "-".
func ReadFile(path string, sampleRate int) ([]float32, Info, error) {
	data, err := ReadBytes(path)
	if err != nil {
		return nil, Info{}, err
	}
	return Decode(data, sampleRate)
}

// ReadFilePCM16 is ReadFile without the conversion to floats.
func ReadFilePCM16(path string, sampleRate int) ([]int16, Info, error) {
	data, err := ReadBytes(path)
	if err != nil {
		return nil, Info{}, err
	}
	return DecodePCM16(data, sampleRate)
}

// ReadBytes returns the undecoded contents of path, or of stdin when
// path is "-".
func ReadBytes(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func isRIFF(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
