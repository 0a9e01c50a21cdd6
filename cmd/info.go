// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fbank/pkg/fbank"
)

func newInfoCmd(a *app) *cobra.Command {
	var (
		samples  int
		showBins bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show derived frame sizes and the mel filterbank layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.FbankOptions()
			if err != nil {
				return err
			}
			ext, err := fbank.New(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			mel := ext.MelBank()
			fmt.Fprintf(out, "sample rate:   %g Hz\n", opts.Frame.SampleFreq)
			fmt.Fprintf(out, "window:        %d samples (%s)\n", ext.WindowSize(), opts.Frame.WindowType)
			fmt.Fprintf(out, "shift:         %d samples\n", ext.WindowShift())
			fmt.Fprintf(out, "fft size:      %d\n", ext.FFTSize())
			fmt.Fprintf(out, "mel range:     %g - %g Hz\n", mel.LowFreq, mel.HighFreq)
			fmt.Fprintf(out, "mel bins:      %d\n", mel.NumBins())
			fmt.Fprintf(out, "feature dim:   %d\n", ext.Dim())
			if samples > 0 {
				fmt.Fprintf(out, "frames:        %d for %d samples\n", ext.NumFrames(samples), samples)
			}

			if showBins {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(tw, "bin\tcenter Hz\tfirst fft bin\tlast fft bin\t")
				for i, b := range mel.Bins {
					fmt.Fprintf(tw, "%d\t%.1f\t%d\t%d\t\n", i, mel.Centers[i], b.StartBin, b.EndBin()-1)
				}
				return tw.Flush()
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Also report the frame count for this many samples")
	cmd.Flags().BoolVar(&showBins, "bins", false, "List every mel filter")

	return cmd
}
