// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the settings of a batch invocation and loads them from YAML or HCL files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/afero"
)

// FS is the filesystem local config files are read from.
var FS = afero.NewOsFs()

const (
	// DefaultToolName is the external tool run for every job.
	DefaultToolName = "vsearch"
	// DefaultThreads is the thread count passed to each job.
	DefaultThreads = 12
	// DefaultOutDir is the output directory, relative to the working directory.
	DefaultOutDir = "vsearch-out"
	// MaxThreads is the largest thread count the tool accepts.
	MaxThreads = 63
)

var (
	// ErrInvalidConfig is returned for config files that cannot be decoded or hold invalid values.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedFormat is returned for config files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported config file format, use .yaml, .yml or .hcl")
)

// Config holds every setting of a batch invocation.
// Zero values mean "not set", except for the booleans.
type Config struct {
	Operation  string   `yaml:"operation,omitempty"   hcl:"operation,optional"`
	Centroids  string   `yaml:"centroids,omitempty"   hcl:"centroids,optional"`
	DB         string   `yaml:"db,omitempty"          hcl:"db,optional"`
	Threshold  *float64 `yaml:"id,omitempty"          hcl:"id,optional"`
	FastqASCII *int     `yaml:"fastq_ascii,omitempty" hcl:"fastq_ascii,optional"`
	OutDir     string   `yaml:"out_dir,omitempty"     hcl:"out_dir,optional"`
	BinDir     string   `yaml:"bin_dir,omitempty"     hcl:"bin_dir,optional"`
	ToolName   string   `yaml:"tool_name,omitempty"   hcl:"tool_name,optional"`
	Threads    int      `yaml:"threads,omitempty"     hcl:"threads,optional"`
	Jobs       int      `yaml:"jobs,omitempty"        hcl:"jobs,optional"`
	Recursive  bool     `yaml:"recursive,omitempty"   hcl:"recursive,optional"`
	Terminate  bool     `yaml:"terminate,omitempty"   hcl:"terminate,optional"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ToolName: DefaultToolName,
		Threads:  DefaultThreads,
		OutDir:   DefaultOutDir,
	}
}

// Concurrency returns Jobs, or the number of jobs that fit the CPUs at Threads each when Jobs is unset.
func (c Config) Concurrency() int {
	if c.Jobs > 0 {
		return c.Jobs
	}

	threads := max(c.Threads, 1)

	return max(1, runtime.NumCPU()/threads)
}

// AuxFile returns the auxiliary file to pass to the operation. Centroids wins over DB.
func (c Config) AuxFile() string {
	if c.Centroids != "" {
		return c.Centroids
	}

	return c.DB
}

// Validate checks the values that do not depend on the operation.
func (c Config) Validate() error {
	if c.Threads < 1 || c.Threads > MaxThreads {
		return fmt.Errorf("%w: threads must be between 1 and %d, got %d", ErrInvalidConfig, MaxThreads, c.Threads)
	}

	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative, got %d", ErrInvalidConfig, c.Jobs)
	}

	if c.Centroids != "" && c.DB != "" {
		return fmt.Errorf("%w: centroids and db are mutually exclusive", ErrInvalidConfig)
	}

	return nil
}

// LoadFile reads a local config file from FS and decodes it over the defaults.
func LoadFile(path string) (Config, error) {
	data, err := afero.ReadFile(FS, path)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	return Decode(path, data)
}

// Decode decodes data over the defaults. The format is chosen by the extension of name.
// Unknown keys are rejected.
func Decode(name string, data []byte) (Config, error) {
	cfg := Defaults()

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
	case ".hcl":
		if err := decodeHCL(name, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, ErrUnsupportedFormat)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}

	return cfg, nil
}

func decodeHCL(name string, data []byte, cfg *Config) error {
	file, diags := hclsyntax.ParseConfig(data, name, hcl.InitialPos)
	if diags.HasErrors() {
		return diags
	}

	if diags := gohcl.DecodeBody(file.Body, nil, cfg); diags.HasErrors() {
		return diags
	}

	return nil
}
