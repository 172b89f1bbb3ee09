// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/vsbatch"
	"github.com/matt-FFFFFF/vsbatch/cmd/config"
	"github.com/matt-FFFFFF/vsbatch/cmd/operations"
	"github.com/matt-FFFFFF/vsbatch/cmd/run"
	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// RootCmd is the root command for the CLI.
var RootCmd = New()

// New returns the root command.
func New() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			run.NewCommand(),
			operations.NewCommand(),
			config.NewCommand(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level: debug, info, warn or error. Overrides " + ctxlog.EnvName(),
			},
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Log format: pretty or json",
				Value: string(ctxlog.FormatPretty),
			},
		},
		Before:    before,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "vsbatch",
		Version:   vsbatch.Version + " (" + vsbatch.Commit + ")",
		Description: `vsbatch runs a vsearch command over many input files in parallel.

Each input file becomes one vsearch invocation writing to <out-dir>/<file name>.
A bounded number of invocations run at once and the batch stops starting new ones as soon as
one fails.`,
		Usage:     "vsbatch run --command cluster_fast --id 0.97 --query ./reads",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
		// main decides the exit code
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

// before configures logging from the global flags.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if s := cmd.String(logLevelFlag); s != "" {
		level, err := ctxlog.ParseLevel(s)
		if err != nil {
			return ctx, cli.Exit(err.Error(), 1)
		}

		ctxlog.LevelVar.Set(level)
	}

	format, err := ctxlog.ParseFormat(cmd.String(logFormatFlag))
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	return ctxlog.New(ctx, ctxlog.NewLogger(format, cmd.Root().ErrWriter)), nil
}
