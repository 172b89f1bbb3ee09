// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package operation holds the closed set of vsearch commands that can be run in a batch.
package operation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknown is matched by errors returned for names outside the catalog.
var ErrUnknown = errors.New("unknown operation")

const (
	// AuxDB is the flag used to pass a reference database.
	AuxDB = "--db"
	// AuxCentroids is the flag used to pass a centroids output file to clustering commands.
	AuxCentroids = "--centroids"
)

// Operation describes one vsearch command.
type Operation struct {
	Name string
	// NeedsThreshold is true when the command requires a similarity threshold (--id).
	NeedsThreshold bool
	// AuxFlag is the flag an auxiliary file is passed with.
	AuxFlag string
}

// Flag returns the command flag, e.g. --cluster_fast.
func (o Operation) Flag() string {
	return "--" + o.Name
}

// Catalog is an immutable set of operations keyed by name.
type Catalog struct {
	ops map[string]Operation
}

// NewCatalog builds a catalog from ops. Later duplicates replace earlier ones.
func NewCatalog(ops ...Operation) *Catalog {
	c := &Catalog{ops: make(map[string]Operation, len(ops))}
	for _, o := range ops {
		if o.AuxFlag == "" {
			o.AuxFlag = AuxDB
		}

		c.ops[o.Name] = o
	}

	return c
}

// Default returns the catalog of vsearch commands.
func Default() *Catalog {
	return defaultCatalog
}

var defaultCatalog = NewCatalog(
	Operation{Name: "allpairs_global", NeedsThreshold: true},
	Operation{Name: "cluster_fast", NeedsThreshold: true, AuxFlag: AuxCentroids},
	Operation{Name: "cluster_size", NeedsThreshold: true, AuxFlag: AuxCentroids},
	Operation{Name: "cluster_smallmem", NeedsThreshold: true, AuxFlag: AuxCentroids},
	Operation{Name: "derep_fulllength"},
	Operation{Name: "derep_prefix"},
	Operation{Name: "fastq_chars"},
	Operation{Name: "fastq_convert"},
	Operation{Name: "fastq_eestats"},
	Operation{Name: "fastq_eestats2"},
	Operation{Name: "fastq_mergepairs"},
	Operation{Name: "fastq_stats"},
	Operation{Name: "fastx_filter"},
	Operation{Name: "fastx_mask"},
	Operation{Name: "fastx_revcomp"},
	Operation{Name: "fastx_subsample"},
	Operation{Name: "rereplicate"},
	Operation{Name: "search_exact"},
	Operation{Name: "shuffle"},
	Operation{Name: "sortbylength"},
	Operation{Name: "sortbysize"},
	Operation{Name: "uchime_denovo"},
	Operation{Name: "uchime_ref"},
	Operation{Name: "usearch_global", NeedsThreshold: true},
)

// Lookup returns the named operation or an *UnknownError.
func (c *Catalog) Lookup(name string) (Operation, error) {
	o, ok := c.ops[name]
	if !ok {
		return Operation{}, &UnknownError{Name: name, Valid: c.Names()}
	}

	return o, nil
}

// Names returns the sorted operation names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.ops))
	for n := range c.ops {
		names = append(names, n)
	}

	slices.Sort(names)

	return names
}

// All returns the operations sorted by name.
func (c *Catalog) All() []Operation {
	names := c.Names()
	ops := make([]Operation, len(names))

	for i, n := range names {
		ops[i] = c.ops[n]
	}

	return ops
}

// UnknownError reports an operation name outside the catalog and lists the valid ones.
type UnknownError struct {
	Name  string
	Valid []string
}

// Error renders the name followed by every valid name, one per line.
func (e *UnknownError) Error() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "--command \"%s\" invalid, choose from:", e.Name)

	for _, v := range e.Valid {
		sb.WriteString("\n - ")
		sb.WriteString(v)
	}

	return sb.String()
}

// Unwrap lets errors.Is match ErrUnknown.
func (e *UnknownError) Unwrap() error {
	return ErrUnknown
}
