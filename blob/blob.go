// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package blob provides the tensor container that superclass layers read
// from and write to.
//
// A Blob holds an activation buffer (Data) and a gradient buffer (Diff) of
// the same shape, laid out row-major with axes [batch, channels, height,
// width].
//
// Example:
//
//	scores, err := blob.FromSlice([]float64{0.1, 0.7, 0.2}, blob.Shape{1, 3, 1, 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(scores.Channels()) // 3
package blob

import (
	"github.com/born-ml/superclass/internal/blob"
)

// Blob is an N-dimensional array with data and gradient buffers.
type Blob = blob.Blob

// Shape represents the dimensions of a blob.
type Shape = blob.Shape

// Empty returns a blob with no shape and no storage.
func Empty() *Blob {
	return blob.Empty()
}

// New creates a zero-filled blob.
func New(shape Shape) (*Blob, error) {
	return blob.New(shape)
}

// FromSlice creates a blob holding a copy of data.
func FromSlice(data []float64, shape Shape) (*Blob, error) {
	return blob.FromSlice(data, shape)
}
