// SPDX-License-Identifier: MIT

// Package cmd wires the fbank command line: batch extraction, the
// feature server and the speaker comparison helpers.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fbank/internal/build"
	"fbank/internal/config"
	"fbank/internal/log"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

// Execute runs the command line with args until ctx is done.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	buildInfo := build.Get()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Log-mel filterbank features for 16 kHz speech",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"YAML config, or an fbank_config.json file (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newExtractCmd(a),
		newInfoCmd(a),
		newEmbedCmd(a),
		newCompareCmd(a),
		newServeCmd(a),
		newToneCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// load reads the configuration and applies the global flags.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	log.SetLevel(level)
	a.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := build.Get()
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			if info.InstanceID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "instance %s\n", info.InstanceID)
			}
			return nil
		},
	}
}
