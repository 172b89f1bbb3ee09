// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the vsbatch command-line application.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/vsbatch/cmd"
	"github.com/matt-FFFFFF/vsbatch/cmd/cmdstate"
	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/vsbatch/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	halter := cmdstate.NewHalter()
	ctx = cmdstate.WithHalter(ctx, halter)

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, halter.Halt, cancel)

	err := cmd.RootCmd.Run(ctx, os.Args)

	cancel()

	if err != nil {
		if msg := err.Error(); msg != "" {
			ctxlog.Error(ctx, "command failed", "error", msg)
		}

		os.Exit(exitCode(err))
	}

	ctxlog.Debug(ctx, "command completed successfully")
}

// exitCode returns the code carried by a cli.ExitCoder, or 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	return 1
}
