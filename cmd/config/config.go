// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config implements the config command, which prints the settings a run would use.
package config

import (
	"context"
	"errors"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/vsbatch/internal/config"
	"github.com/urfave/cli/v3"
)

const configFlag = "config"

// ErrWriteConfig is returned when the configuration cannot be printed.
var ErrWriteConfig = errors.New("failed to write configuration")

// NewCommand returns the config command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the configuration, the defaults merged with an optional config file, as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     configFlag,
				Usage:    "YAML or HCL config file. Supports Hashicorp's go-getter syntax",
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(ctx, cmd.String(configFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	if _, err := cmd.Root().Writer.Write(b); err != nil {
		return errors.Join(ErrWriteConfig, err)
	}

	return nil
}
