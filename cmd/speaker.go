// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"fbank/internal/audio"
	"fbank/pkg/embedding"
	"fbank/pkg/fbank"
)

// newSpeaker builds the statistics-pooling speaker pipeline from the
// configured feature options.
func (a *app) newSpeaker(cmn bool) (*embedding.Speaker, int, error) {
	opts, err := a.cfg.FbankOptions()
	if err != nil {
		return nil, 0, err
	}
	ext, err := fbank.New(opts, fbank.WithWorkers(a.cfg.Extract.Workers), fbank.WithSeed(a.cfg.Extract.Seed))
	if err != nil {
		return nil, 0, err
	}
	var options []embedding.SpeakerOption
	if cmn {
		options = append(options, embedding.WithMeanNormalization())
	}
	model := embedding.NewStatsPooling(ext.Dim())
	return embedding.NewSpeaker(ext, model, options...), int(opts.Frame.SampleFreq), nil
}

func newEmbedCmd(a *app) *cobra.Command {
	var cmn bool

	cmd := &cobra.Command{
		Use:   "embed FILE",
		Short: "Print the pooled feature embedding of an utterance as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speaker, rate, err := a.newSpeaker(cmn)
			if err != nil {
				return err
			}
			defer speaker.Close()

			pcm, _, err := audio.ReadFilePCM16(args[0], rate)
			if err != nil {
				return err
			}
			vec, err := speaker.ExtractEmbedding(pcm)
			if err != nil {
				return err
			}

			return json.NewEncoder(cmd.OutOrStdout()).Encode(struct {
				ID        string    `json:"id"`
				Dim       int       `json:"dim"`
				Embedding []float32 `json:"embedding"`
			}{utteranceID(args[0]), len(vec), vec})
		},
	}

	cmd.Flags().BoolVar(&cmn, "cmn", false, "Subtract the per-bin mean before pooling")

	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		cmn          bool
		threshold    float32
		hybridWeight float32
	)

	cmd := &cobra.Command{
		Use:   "compare FILE1 FILE2",
		Short: "Score whether two utterances share a speaker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			speaker, rate, err := a.newSpeaker(cmn)
			if err != nil {
				return err
			}
			defer speaker.Close()

			pcm1, _, err := audio.ReadFilePCM16(args[0], rate)
			if err != nil {
				return err
			}
			pcm2, _, err := audio.ReadFilePCM16(args[1], rate)
			if err != nil {
				return err
			}

			same, score, err := speaker.IsSameSpeaker(pcm1, pcm2, threshold)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cosine: %.4f\n", score)
			if cmd.Flags().Changed("hybrid-weight") {
				hybrid, err := speaker.CompareHybrid(pcm1, pcm2, hybridWeight)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "hybrid: %.4f\n", hybrid)
			}
			fmt.Fprintf(out, "same speaker: %t\n", same)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cmn, "cmn", false, "Subtract the per-bin mean before pooling")
	cmd.Flags().Float32VarP(&threshold, "threshold", "t", embedding.DefaultThreshold, "Cosine score needed to call a match")
	cmd.Flags().Float32Var(&hybridWeight, "hybrid-weight", 0.5, "Also print the hybrid score with this cosine weight")

	return cmd
}
