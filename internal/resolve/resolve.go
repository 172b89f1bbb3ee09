// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package resolve expands the paths given on the command line into a flat list of input files.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/vsbatch/internal/ctxlog"
	"github.com/spf13/afero"
)

// FS is the filesystem inputs are resolved against.
// Default is the OS filesystem, tests replace it with an in-memory one.
var FS = afero.NewOsFs()

var (
	// ErrNotFound is returned when an input path does not exist or cannot be read.
	ErrNotFound = errors.New("input path not found")
	// ErrNoInputFiles is returned when the inputs contain no regular files.
	ErrNoInputFiles = errors.New("no input files")
)

// Options controls directory expansion.
type Options struct {
	// Recursive descends into subdirectories. Otherwise only the direct children of a
	// directory are considered.
	Recursive bool
}

// Files returns the regular files named by paths, in order.
// A file path is returned as given. A directory contributes its regular files in lexical order.
// Files reachable through more than one path are returned more than once.
//
// Every missing path is reported, not just the first.
func Files(ctx context.Context, paths []string, opts Options) ([]string, error) {
	var (
		files []string
		errs  *multierror.Error
	)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err //nolint:wrapcheck
		}

		info, err := FS.Stat(p)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s: %w", ErrNotFound, p, err))
			continue
		}

		switch {
		case info.Mode().IsRegular():
			files = append(files, p)
		case info.IsDir():
			found, err := listDir(ctx, p, opts.Recursive)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w: %s: %w", ErrNotFound, p, err))
				continue
			}

			ctxlog.Debug(ctx, "expanded directory", "path", p, "files", len(found), "recursive", opts.Recursive)
			files = append(files, found...)
		default:
			ctxlog.Debug(ctx, "ignoring input that is neither file nor directory", "path", p, "mode", info.Mode().String())
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, quoteAll(paths))
	}

	return files, nil
}

func listDir(ctx context.Context, dir string, recursive bool) ([]string, error) {
	var files []string

	if !recursive {
		entries, err := afero.ReadDir(FS, dir)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		for _, e := range entries {
			if e.Mode().IsRegular() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}

		return files, nil
	}

	err := afero.Walk(FS, dir, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			files = append(files, path)
		}

		return nil
	})

	return files, err //nolint:wrapcheck
}

func quoteAll(paths []string) string {
	if len(paths) == 0 {
		return "[]"
	}

	q := make([]string, len(paths))
	for i, p := range paths {
		q[i] = fmt.Sprintf("%q", p)
	}

	return "[" + strings.Join(q, ", ") + "]"
}
