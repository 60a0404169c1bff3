// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mapping loads fine-to-coarse label hierarchies.
//
// A mapping file has one line per coarse group listing the fine label
// indices of that group, separated by whitespace and/or commas:
//
//	0 1
//	2
//
// Example:
//
//	table, err := mapping.Load("hierarchy.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	coarse, err := table.Coarse(1) // 0
package mapping

import (
	"io"

	"github.com/born-ml/superclass/internal/mapping"
)

// Table is an immutable partition of fine labels into coarse groups.
type Table = mapping.Table

// ParseError describes a malformed token in a mapping file.
type ParseError = mapping.ParseError

// Option configures Load and Parse.
type Option = mapping.Option

// Errors returned by the loader and by Table lookups.
var (
	ErrNoMappingFile  = mapping.ErrNoMappingFile
	ErrNegativeIndex  = mapping.ErrNegativeIndex
	ErrNotAnInteger   = mapping.ErrNotAnInteger
	ErrIndexTooLarge  = mapping.ErrIndexTooLarge
	ErrFineOutOfRange = mapping.ErrFineOutOfRange
	ErrUnmapped       = mapping.ErrUnmapped
)

// Load reads a mapping file.
func Load(path string, opts ...Option) (*Table, error) {
	return mapping.Load(path, opts...)
}

// Parse reads mapping lines from r.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	return mapping.Parse(r, opts...)
}

// FromGroups builds a Table from in-memory groups.
func FromGroups(groups [][]int) (*Table, error) {
	return mapping.FromGroups(groups)
}

// WithLenient skips malformed tokens instead of failing.
func WithLenient(lenient bool) Option {
	return mapping.WithLenient(lenient)
}

// WithSkipHandler is called for every token skipped in lenient mode.
func WithSkipHandler(fn func(*ParseError)) Option {
	return mapping.WithSkipHandler(fn)
}
