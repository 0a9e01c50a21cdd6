// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fbank/internal/audio"
	"fbank/internal/log"
	"fbank/pkg/utils"
)

func newToneCmd(a *app) *cobra.Command {
	var (
		frequency float64
		duration  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tone FILE",
		Short: "Write a sine test tone as a mono 16-bit WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate := int(a.cfg.Fbank.FrameExtractionOptions.SampleFreq)
			if duration <= 0 {
				return fmt.Errorf("duration must be positive, got %s", duration)
			}
			if frequency <= 0 || frequency >= float64(rate)/2 {
				return fmt.Errorf("frequency %g Hz must lie between 0 and %d Hz", frequency, rate/2)
			}

			samples := int(duration.Seconds() * float64(rate))
			pcm := utils.GenerateSineWavePCM16(samples, float64(rate), frequency)

			rec := audio.NewRecorder(rate)
			if err := rec.Start(args[0]); err != nil {
				return err
			}
			// Stream in 100 ms chunks.
			chunk := rate / 10
			for start := 0; start < len(pcm); start += chunk {
				end := min(start+chunk, len(pcm))
				if err := rec.Write(pcm[start:end]); err != nil {
					_ = rec.Stop()
					return err
				}
			}
			if err := rec.Stop(); err != nil {
				return err
			}
			log.Infof("tone: wrote %d samples of %g Hz to %s", len(pcm), frequency, args[0])
			return nil
		},
	}

	cmd.Flags().Float64Var(&frequency, "freq", 440, "Tone frequency in Hz")
	cmd.Flags().DurationVarP(&duration, "duration", "d", time.Second, "Tone length")

	return cmd
}
