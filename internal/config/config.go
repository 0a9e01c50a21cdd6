package config

import (
	"time"

	"fbank/pkg/fbank"
)

// Defaults for every setting that has one. Feature defaults come from
// the fbank package so the two never drift.
const (
	DefaultLogLevel = "info"
	DefaultFormat   = "json"
	DefaultWorkers  = 0 // extract on the calling goroutine
	DefaultSeed     = fbank.DefaultSeed
	DefaultCMVN     = false

	DefaultServerAddr      = "127.0.0.1:8765"
	DefaultMaxMessageBytes = 16 << 20 // ~8.7 minutes of 16 kHz PCM16
	DefaultWriteTimeout    = 10 * time.Second

	DefaultWindowType = "povey"

	// Upper bound for the worker pool; more goroutines than this only
	// adds scheduling overhead for a single utterance.
	MaxWorkers = 256
)

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	d := fbank.DefaultOptions()
	return &Config{
		LogLevel: DefaultLogLevel,
		Fbank: FbankConfig{
			FrameExtractionOptions: FrameExtractionConfig{
				SampleFreq:        d.Frame.SampleFreq,
				FrameShiftMs:      d.Frame.FrameShiftMs,
				FrameLengthMs:     d.Frame.FrameLengthMs,
				Dither:            d.Frame.Dither,
				RemoveDCOffset:    d.Frame.RemoveDCOffset,
				PreEmphasisCoeff:  d.Frame.PreEmphasisCoeff,
				WindowType:        DefaultWindowType,
				RoundToPowerOfTwo: d.Frame.RoundToPowerOfTwo,
			},
			MelBanksOptions: MelBanksConfig{
				NumBins:  d.Mel.NumBins,
				LowFreq:  d.Mel.LowFreq,
				HighFreq: d.Mel.HighFreq,
			},
			UsePower:    d.UsePower,
			UseLogFbank: d.UseLogFbank,
			UseEnergy:   d.UseEnergy,
			EnergyFloor: d.EnergyFloor,
			RawEnergy:   d.RawEnergy,
		},
		Extract: ExtractConfig{
			Format:  DefaultFormat,
			Workers: DefaultWorkers,
			Seed:    DefaultSeed,
			CMVN:    DefaultCMVN,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			MaxMessageBytes: DefaultMaxMessageBytes,
			WriteTimeout:    DefaultWriteTimeout,
		},
	}
}
