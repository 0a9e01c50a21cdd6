// SPDX-License-Identifier: MIT
package cmd

import (
	"github.com/spf13/cobra"

	"fbank/internal/transport"
	"fbank/pkg/fbank"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve feature extraction over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Server.Addr
			}
			opts, err := a.cfg.FbankOptions()
			if err != nil {
				return err
			}
			ext, err := fbank.New(opts, fbank.WithWorkers(a.cfg.Extract.Workers), fbank.WithSeed(a.cfg.Extract.Seed))
			if err != nil {
				return err
			}

			observer := transport.NewLoggingTransport()
			defer observer.Close()

			srv := transport.NewServer(ext, transport.ServerOptions{
				MaxMessageBytes: a.cfg.Server.MaxMessageBytes,
				WriteTimeout:    a.cfg.Server.WriteTimeout,
				CMVN:            a.cfg.Extract.CMVN,
				Observer:        observer,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}
