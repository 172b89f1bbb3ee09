// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package operations implements the operations command, which lists the vsearch commands a batch
// can run.
package operations

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/vsbatch/internal/operation"
	"github.com/urfave/cli/v3"
)

// NewCommand returns the operations command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "operations",
		Usage: "List the vsearch commands that can be run",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctxlog.Debug(ctx, "running operations command")
			return write(cmd.Root().Writer, operation.Default())
		},
	}
}

func write(w io.Writer, c *operation.Catalog) error {
	if _, err := fmt.Fprintln(w, "Available operations:"); err != nil {
		return err //nolint:wrapcheck
	}

	for _, op := range c.All() {
		line := fmt.Sprintf("  %-18s aux file %s", op.Name, op.AuxFlag)
		if op.NeedsThreshold {
			line += ", requires --id"
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}
