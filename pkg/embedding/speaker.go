// SPDX-License-Identifier: MIT
package embedding

import (
	"fmt"
	"sync"

	"fbank/pkg/fbank"
)

// DefaultThreshold is the cosine score at or above which two
// utterances are attributed to the same speaker.
const DefaultThreshold float32 = 0.70

// Speaker runs the full pipeline: PCM16 -> FBANK -> Model -> unit-norm
// embedding. It is safe for concurrent use until Close is called.
type Speaker struct {
	mu        sync.RWMutex
	extractor *fbank.Extractor
	model     Model
	cmn       bool
}

// SpeakerOption customises a Speaker.
type SpeakerOption func(*Speaker)

// WithMeanNormalization subtracts the per-bin mean from the features
// before they reach the model.
func WithMeanNormalization() SpeakerOption {
	return func(s *Speaker) {
		s.cmn = true
	}
}

// NewSpeaker wires an extractor to a model.
func NewSpeaker(extractor *fbank.Extractor, model Model, options ...SpeakerOption) *Speaker {
	s := &Speaker{extractor: extractor, model: model}
	for _, o := range options {
		o(s)
	}
	return s
}

// Close releases the model. Further calls fail with ErrClosed.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ErrClosed
	}
	err := s.model.Close()
	s.model = nil
	return err
}

// Embed computes the unit-norm embedding of a normalised waveform.
func (s *Speaker) Embed(wave []float32) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, ErrClosed
	}

	feats, err := s.extractor.Extract(wave)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	if feats.Rows() == 0 {
		return nil, fmt.Errorf("%w: %d samples is shorter than one frame", ErrEmptyFeatures, len(wave))
	}
	if s.cmn {
		feats.SubtractMean()
	}

	emb, err := s.model.Embed(feats)
	if err != nil {
		return nil, fmt.Errorf("running model: %w", err)
	}
	return Normalize(emb), nil
}

// ExtractEmbedding computes the embedding of 16 kHz mono PCM16 audio.
func (s *Speaker) ExtractEmbedding(pcm []int16) ([]float32, error) {
	return s.Embed(fbank.Int16ToFloat32(pcm))
}

func (s *Speaker) embedPair(pcm1, pcm2 []int16) ([]float32, []float32, error) {
	emb1, err := s.ExtractEmbedding(pcm1)
	if err != nil {
		return nil, nil, fmt.Errorf("first utterance: %w", err)
	}
	emb2, err := s.ExtractEmbedding(pcm2)
	if err != nil {
		return nil, nil, fmt.Errorf("second utterance: %w", err)
	}
	return emb1, emb2, nil
}

// CompareSpeakers returns the cosine similarity of two utterances.
func (s *Speaker) CompareSpeakers(pcm1, pcm2 []int16) (float32, error) {
	emb1, emb2, err := s.embedPair(pcm1, pcm2)
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(emb1, emb2)
}

// IsSameSpeaker compares two utterances against threshold. A
// non-positive threshold selects DefaultThreshold.
func (s *Speaker) IsSameSpeaker(pcm1, pcm2 []int16, threshold float32) (bool, float32, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	score, err := s.CompareSpeakers(pcm1, pcm2)
	if err != nil {
		return false, 0, err
	}
	return score >= threshold, score, nil
}

// CompareHybrid scores two utterances with HybridSimilarity.
func (s *Speaker) CompareHybrid(pcm1, pcm2 []int16, cosineWeight float32) (float32, error) {
	emb1, emb2, err := s.embedPair(pcm1, pcm2)
	if err != nil {
		return 0, err
	}
	return HybridSimilarity(emb1, emb2, cosineWeight)
}
