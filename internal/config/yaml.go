// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"fbank/internal/log"
	"fbank/internal/output"
	"fbank/pkg/fbank"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel string        `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Fbank    FbankConfig   `yaml:"fbank"`     // Feature extraction settings.
	Extract  ExtractConfig `yaml:"extract"`   // Batch extraction settings for the CLI.
	Server   ServerConfig  `yaml:"server"`    // WebSocket feature server settings.
}

// FbankConfig mirrors the fbank_config.json layout used by speaker
// embedding toolkits, so those files load unchanged.
type FbankConfig struct {
	FrameExtractionOptions FrameExtractionConfig `yaml:"FrameExtractionOptions"`
	MelBanksOptions        MelBanksConfig        `yaml:"MelBanksOptions"`
	UsePower               bool                  `yaml:"use_power"`     // Power spectrum (true) or magnitude (false).
	UseLogFbank            bool                  `yaml:"use_log_fbank"` // Natural log of the mel energies.
	UseEnergy              bool                  `yaml:"use_energy"`    // Prepend a log-energy column.
	EnergyFloor            float64               `yaml:"energy_floor"`  // Floor for the energy column (0 disables).
	RawEnergy              bool                  `yaml:"raw_energy"`    // Energy before pre-emphasis and windowing.
}

// FrameExtractionConfig holds the framing and per-frame conditioning settings.
type FrameExtractionConfig struct {
	SampleFreq        float64 `yaml:"sample_freq"`              // Input sample rate in Hz (16000).
	FrameShiftMs      float64 `yaml:"frame_shift_ms"`           // Hop between frames in milliseconds.
	FrameLengthMs     float64 `yaml:"frame_length_ms"`          // Window length in milliseconds.
	Dither            float64 `yaml:"dither"`                   // Gaussian dither amplitude (0 disables).
	RemoveDCOffset    bool    `yaml:"remove_dc_offset"`         // Subtract the frame mean.
	PreEmphasisCoeff  float64 `yaml:"pre_emphasis_coefficient"` // High-pass coefficient in [0, 1].
	WindowType        string  `yaml:"window_type"`              // povey, hamming, hanning, blackman or rectangular.
	RoundToPowerOfTwo bool    `yaml:"round_to_power_of_two"`    // Pad the FFT to the next power of 2.
}

// MelBanksConfig holds the filterbank settings.
type MelBanksConfig struct {
	NumBins  int     `yaml:"num_bins"`  // Number of triangular filters.
	LowFreq  float64 `yaml:"low_freq"`  // Lower edge in Hz.
	HighFreq float64 `yaml:"high_freq"` // Upper edge in Hz; <= 0 is an offset from Nyquist.
}

// ExtractConfig holds settings for `fbank extract`.
type ExtractConfig struct {
	Format  string `yaml:"format"`  // json, msgpack or text.
	Workers int    `yaml:"workers"` // Goroutines per utterance (0 or 1 runs sequentially).
	Seed    uint64 `yaml:"seed"`    // Dither seed.
	CMVN    bool   `yaml:"cmvn"`    // Mean and variance normalise each utterance.
}

// ServerConfig holds settings for `fbank serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`              // Listen address.
	MaxMessageBytes int64         `yaml:"max_message_bytes"` // Largest accepted PCM message.
	WriteTimeout    time.Duration `yaml:"write_timeout"`     // Deadline for each reply.
}

// DefaultPath is the file LoadConfig looks for when no path is given.
const DefaultPath = "fbank.yaml"

// LoadConfig loads configuration from a YAML (or JSON) file specified by
// path. If path is empty it looks for DefaultPath and falls back to the
// built-in defaults when that is missing. A file whose top level is an
// fbank_config.json document (FrameExtractionOptions, MelBanksOptions,
// ...) fills only the feature settings. Environment overrides are
// applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err != nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	log.Debugf("configuration: loaded %s", path)

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) unmarshal(data []byte) error {
	var probe struct {
		Frame *yaml.Node `yaml:"FrameExtractionOptions"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Frame != nil {
		return yaml.Unmarshal(data, &c.Fbank)
	}
	return yaml.Unmarshal(data, c)
}

// Validate checks every section and reports the first problem found.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error, fatal", c.LogLevel)
	}

	opts, err := c.FbankOptions()
	if err != nil {
		return fmt.Errorf("fbank: %w", err)
	}
	// Building an extractor also checks the mel bank against the sample rate.
	if _, err := fbank.New(opts); err != nil {
		return fmt.Errorf("fbank: %w", err)
	}

	if _, err := output.ParseFormat(c.Extract.Format); err != nil {
		return fmt.Errorf("extract.format: %w", err)
	}
	if c.Extract.Workers < 0 || c.Extract.Workers > MaxWorkers {
		return fmt.Errorf("extract.workers %d must be between 0 and %d", c.Extract.Workers, MaxWorkers)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.MaxMessageBytes <= 0 {
		return fmt.Errorf("server.max_message_bytes must be positive, got %d", c.Server.MaxMessageBytes)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// FbankOptions converts the feature section to extractor options.
func (c *Config) FbankOptions() (fbank.Options, error) {
	f := c.Fbank.FrameExtractionOptions
	windowType, err := fbank.ParseWindowType(f.WindowType)
	if err != nil {
		return fbank.Options{}, err
	}
	m := c.Fbank.MelBanksOptions
	return fbank.Options{
		Frame: fbank.FrameOptions{
			SampleFreq:        f.SampleFreq,
			FrameShiftMs:      f.FrameShiftMs,
			FrameLengthMs:     f.FrameLengthMs,
			Dither:            f.Dither,
			PreEmphasisCoeff:  f.PreEmphasisCoeff,
			RemoveDCOffset:    f.RemoveDCOffset,
			WindowType:        windowType,
			RoundToPowerOfTwo: f.RoundToPowerOfTwo,
		},
		Mel: fbank.MelOptions{
			NumBins:  m.NumBins,
			LowFreq:  m.LowFreq,
			HighFreq: m.HighFreq,
		},
		UsePower:    c.Fbank.UsePower,
		UseLogFbank: c.Fbank.UseLogFbank,
		UseEnergy:   c.Fbank.UseEnergy,
		RawEnergy:   c.Fbank.RawEnergy,
		EnergyFloor: c.Fbank.EnergyFloor,
	}, nil
}

// applyEnvOverrides applies FBANK_* environment variables on top of the
// file. Unparseable values are logged and ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("FBANK_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Infof("configuration: overriding log_level from env: %s", val)
	}

	// FBANK_DITHER
	if val, ok := os.LookupEnv("FBANK_DITHER"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Fbank.FrameExtractionOptions.Dither = f
			log.Infof("configuration: overriding dither from env: %g", f)
		} else {
			log.Warnf("configuration: ignoring FBANK_DITHER=%q: %v", val, err)
		}
	}
	// FBANK_NUM_BINS
	if val, ok := os.LookupEnv("FBANK_NUM_BINS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Fbank.MelBanksOptions.NumBins = n
			log.Infof("configuration: overriding num_bins from env: %d", n)
		} else {
			log.Warnf("configuration: ignoring FBANK_NUM_BINS=%q: %v", val, err)
		}
	}
	// FBANK_WORKERS
	if val, ok := os.LookupEnv("FBANK_WORKERS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Extract.Workers = n
			log.Infof("configuration: overriding extract.workers from env: %d", n)
		} else {
			log.Warnf("configuration: ignoring FBANK_WORKERS=%q: %v", val, err)
		}
	}
	// FBANK_SERVER_ADDR
	if val, ok := os.LookupEnv("FBANK_SERVER_ADDR"); ok {
		c.Server.Addr = val
		log.Infof("configuration: overriding server.addr from env: %s", val)
	}
}
