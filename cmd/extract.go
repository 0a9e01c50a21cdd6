// SPDX-License-Identifier: MIT
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fbank/internal/audio"
	"fbank/internal/log"
	"fbank/internal/output"
	"fbank/internal/transport"
	"fbank/pkg/fbank"
)

type extractFlags struct {
	output  string
	format  string
	cmvn    bool
	workers int
	seed    uint64
	remote  string
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Compute features for WAV or raw PCM16 files ('-' reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				f.format = a.cfg.Extract.Format
			}
			if !cmd.Flags().Changed("cmvn") {
				f.cmvn = a.cfg.Extract.CMVN
			}
			if !cmd.Flags().Changed("workers") {
				f.workers = a.cfg.Extract.Workers
			}
			if !cmd.Flags().Changed("seed") {
				f.seed = a.cfg.Extract.Seed
			}
			return a.runExtract(cmd.Context(), cmd.OutOrStdout(), f, args)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "Output file ('-' for stdout)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: json, msgpack or text (default from config)")
	cmd.Flags().BoolVar(&f.cmvn, "cmvn", false, "Mean and variance normalise each utterance")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Goroutines per utterance")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Dither seed")
	cmd.Flags().StringVar(&f.remote, "remote", "", "Extract on a feature server, e.g. ws://127.0.0.1:8765/fbank")

	return cmd
}

// utterance turns one input into features.
type utterance func(ctx context.Context, path string) (fbank.Matrix, error)

func (a *app) runExtract(ctx context.Context, stdout io.Writer, f extractFlags, inputs []string) error {
	format, err := output.ParseFormat(f.format)
	if err != nil {
		return err
	}

	var extract utterance
	if f.remote != "" {
		client, err := transport.Dial(ctx, f.remote)
		if err != nil {
			return err
		}
		defer client.Close()
		extract = remoteUtterance(client)
	} else {
		opts, err := a.cfg.FbankOptions()
		if err != nil {
			return err
		}
		ext, err := fbank.New(opts, fbank.WithWorkers(f.workers), fbank.WithSeed(f.seed))
		if err != nil {
			return err
		}
		extract = localUtterance(ext)
	}

	w := stdout
	if f.output != "-" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)

	for _, path := range inputs {
		start := time.Now()
		m, err := extract(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if f.cmvn {
			m.CMVN()
		}
		feats := output.NewFeatures(utteranceID(path), m)
		if err := output.Encode(bw, format, feats); err != nil {
			return fmt.Errorf("%s: writing features: %w", path, err)
		}
		log.Infof("extract: %s: %d frames x %d bins in %s", path, feats.Frames, feats.Bins, time.Since(start).Round(time.Microsecond))
	}

	return bw.Flush()
}

func localUtterance(ext *fbank.Extractor) utterance {
	rate := int(ext.Options().Frame.SampleFreq)
	return func(ctx context.Context, path string) (fbank.Matrix, error) {
		samples, info, err := audio.ReadFile(path, rate)
		if err != nil {
			return nil, err
		}
		log.Debugf("extract: %s: %s, %d samples", path, info.Container, info.Samples)
		return ext.ExtractContext(ctx, samples)
	}
}

func remoteUtterance(client *transport.Client) utterance {
	return func(ctx context.Context, path string) (fbank.Matrix, error) {
		data, err := audio.ReadBytes(path)
		if err != nil {
			return nil, err
		}
		feats, err := client.Extract(ctx, data)
		if err != nil {
			return nil, err
		}
		log.Debugf("extract: %s: server id %s", path, feats.ID)
		return feats.Data, nil
	}
}

// utteranceID names an utterance after its file.
func utteranceID(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
