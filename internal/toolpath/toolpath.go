// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package toolpath finds external executables.
package toolpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	// ErrNotFound is returned when the executable does not exist.
	ErrNotFound = errors.New("executable not found")
	// ErrNotExecutable is returned when the path exists but cannot be executed.
	ErrNotExecutable = errors.New("file is not executable")
)

// Lookup resolves name to the path of an executable file.
// A name containing a path separator is checked as given, otherwise each PATH entry is searched in order.
func Lookup(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}

	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if err := checkExecutable(name); err != nil {
			return "", err
		}

		return name, nil
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}

		candidate := filepath.Join(dir, name)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s in PATH", ErrNotFound, name)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, path)
	}

	// check if the file is executable if not Windows
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%w: %s", ErrNotExecutable, path)
	}

	return nil
}
