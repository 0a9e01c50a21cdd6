// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fbank/cmd"
	"fbank/internal/build"
	"fbank/internal/log"
)

func main() {
	if err := build.Initialize(); err != nil {
		log.Fatal(err)
	}

	// Interrupts cancel the running command; serve shuts down cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		log.Fatal(err)
	}
}
