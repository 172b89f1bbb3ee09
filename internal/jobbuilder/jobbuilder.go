// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobbuilder turns an operation and a list of input files into a batch of vsearch
// invocations.
package jobbuilder

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/vsbatch/internal/operation"
	"github.com/matt-FFFFFF/vsbatch/internal/runbatch"
)

const (
	// DefaultToolName is the executable run for every job.
	DefaultToolName = "vsearch"
	// DefaultThreads is the per-job thread count.
	DefaultThreads = 12
	// MaxThreads is the largest thread count vsearch accepts.
	MaxThreads = 63
)

var (
	// ErrMissingRequiredParameter is returned when the operation needs a parameter that was not given.
	ErrMissingRequiredParameter = errors.New("missing required parameter")
	// ErrInvalidParameter is returned when a parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidFileName is returned when an output file name cannot be derived from an input path.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrConfig is returned by New for invalid builder options.
	ErrConfig = errors.New("invalid builder configuration")
)

// Options configures a Builder.
type Options struct {
	ToolName string // Executable name, defaults to DefaultToolName
	BinDir   string // Directory holding the executable, empty to search PATH
	OutDir   string // Directory output files are written to
	Threads  int    // Threads per job, 1..MaxThreads
	// Catalog is the set of allowed operations, defaults to operation.Default().
	Catalog *operation.Catalog
}

// Params are the per-invocation parameters.
type Params struct {
	Operation  string
	Threshold  *float64 // Similarity threshold passed as --id
	AuxFile    string   // Database or centroids file, passed with the operation's aux flag
	FastqASCII *int     // FASTQ quality offset, 33 or 64
}

// Builder builds batches. It holds no state between calls.
type Builder struct {
	opts Options
}

// New validates opts and returns a Builder.
func New(opts Options) (*Builder, error) {
	if opts.ToolName == "" {
		opts.ToolName = DefaultToolName
	}

	if strings.ContainsRune(opts.ToolName, os.PathSeparator) {
		return nil, fmt.Errorf("%w: tool name %q must not contain a path separator, use the bin directory", ErrConfig, opts.ToolName)
	}

	if opts.Threads < 1 || opts.Threads > MaxThreads {
		return nil, fmt.Errorf("%w: threads must be between 1 and %d, got %d", ErrConfig, MaxThreads, opts.Threads)
	}

	if opts.Catalog == nil {
		opts.Catalog = operation.Default()
	}

	return &Builder{opts: opts}, nil
}

// Executable returns the program every job runs.
func (b *Builder) Executable() string {
	if b.opts.BinDir == "" {
		return b.opts.ToolName
	}

	return filepath.Join(b.opts.BinDir, b.opts.ToolName)
}

// Build returns one job per file, in order. Nothing is returned unless every file yields a job.
func (b *Builder) Build(p Params, files []string) (runbatch.Batch, error) {
	op, err := b.opts.Catalog.Lookup(p.Operation)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if op.NeedsThreshold && p.Threshold == nil {
		return nil, fmt.Errorf("%w: %s requires --id in the open interval (0, 1)", ErrMissingRequiredParameter, op.Name)
	}

	if p.Threshold != nil {
		if v := *p.Threshold; math.IsNaN(v) || v <= 0 || v >= 1 {
			return nil, fmt.Errorf("%w: --id must be in the open interval (0, 1), got %v", ErrInvalidParameter, v)
		}
	}

	if p.FastqASCII != nil && *p.FastqASCII != 33 && *p.FastqASCII != 64 {
		return nil, fmt.Errorf("%w: --fastq_ascii must be 33 or 64, got %d", ErrInvalidParameter, *p.FastqASCII)
	}

	outputs := make([]string, len(files))

	for i, f := range files {
		name, err := baseName(f)
		if err != nil {
			return nil, err
		}

		outputs[i] = filepath.Join(b.opts.OutDir, name)
	}

	exe := b.Executable()
	batch := make(runbatch.Batch, len(files))

	for i, f := range files {
		batch[i] = runbatch.NewJobSpec(exe, b.args(op, p, f, outputs[i]), f, outputs[i])
	}

	return batch, nil
}

func (b *Builder) args(op operation.Operation, p Params, input, output string) []string {
	args := []string{op.Flag(), input}

	if p.AuxFile != "" {
		args = append(args, op.AuxFlag, p.AuxFile)
	}

	if p.Threshold != nil {
		args = append(args, "--id", strconv.FormatFloat(*p.Threshold, 'f', -1, 64))
	}

	if p.FastqASCII != nil {
		args = append(args, "--fastq_ascii", strconv.Itoa(*p.FastqASCII))
	}

	return append(args,
		"--alnout", output,
		"--threads", strconv.Itoa(b.opts.Threads),
	)
}

// baseName returns the final path element of path.
func baseName(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidFileName)
	}

	if os.IsPathSeparator(path[len(path)-1]) {
		return "", fmt.Errorf("%w: %q ends in a path separator", ErrInvalidFileName, path)
	}

	name := filepath.Base(path)
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q has no file name", ErrInvalidFileName, path)
	}

	return name, nil
}
