// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layers provides the label-hierarchy layers.
//
// # Overview
//
//   - MapLabels: replaces fine labels with the label of their coarse group
//   - InferSuperclasses: sums fine-class score channels into coarse-class
//     channels and copies coarse gradients back to fine channels
//   - Segmentation: splits images into per-segment crops
//
// Every layer implements Layer: Setup, Reshape, Forward and Backward over
// blobs owned by the caller.
//
// # Basic Usage
//
//	layer := layers.NewInferSuperclasses(config.MapLabelsParameter{
//	    MappingFile: "hierarchy.txt",
//	})
//	bottom := []*blob.Blob{scores}
//	top := []*blob.Blob{blob.Empty()}
//	if err := layer.Setup(bottom, top); err != nil {
//	    log.Fatal(err)
//	}
//	if err := layer.Reshape(bottom, top); err != nil {
//	    log.Fatal(err)
//	}
//	if err := layer.Forward(bottom, top); err != nil {
//	    log.Fatal(err)
//	}
package layers

import (
	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/layers"
	"github.com/born-ml/superclass/internal/mapping"
	"github.com/born-ml/superclass/internal/segment"
)

// Layer is the lifecycle every layer implements.
type Layer = layers.Layer

// Arity bounds the number of blobs a layer is wired to.
type Arity = layers.Arity

// ArityError reports a layer wired to the wrong number of blobs.
type ArityError = layers.ArityError

// ShapeError reports a bottom blob a layer cannot accept.
type ShapeError = layers.ShapeError

// Registry maps layer type names to factories.
type Registry = layers.Registry

// Factory creates a layer from its parameters.
type Factory = layers.Factory

// MapLabels replaces fine labels with coarse labels.
type MapLabels = layers.MapLabels

// InferSuperclasses aggregates fine-class scores into coarse-class scores.
type InferSuperclasses = layers.InferSuperclasses

// Segmentation splits images into per-segment crops.
type Segmentation = layers.Segmentation

// Segmenter assigns every pixel of an image to a segment.
type Segmenter = segment.Segmenter

// Layer type names.
const (
	TypeMapLabels         = layers.TypeMapLabels
	TypeInferSuperclasses = layers.TypeInferSuperclasses
	TypeSegmentation      = layers.TypeSegmentation
)

// NewRegistry returns a registry with every built-in layer.
func NewRegistry() *Registry {
	return layers.NewRegistry()
}

// NewMapLabels creates a MapLabels layer; the mapping is loaded in Setup.
func NewMapLabels(param config.MapLabelsParameter) *MapLabels {
	return layers.NewMapLabels(param)
}

// NewMapLabelsWithTable creates a MapLabels layer around a built table.
func NewMapLabelsWithTable(table *mapping.Table, param config.MapLabelsParameter) *MapLabels {
	return layers.NewMapLabelsWithTable(table, param)
}

// NewInferSuperclasses creates an InferSuperclasses layer; the mapping is
// loaded in Setup.
func NewInferSuperclasses(param config.MapLabelsParameter) *InferSuperclasses {
	return layers.NewInferSuperclasses(param)
}

// NewInferSuperclassesWithTable creates an InferSuperclasses layer around a
// built table.
func NewInferSuperclassesWithTable(table *mapping.Table) *InferSuperclasses {
	return layers.NewInferSuperclassesWithTable(table)
}

// NewSegmentation creates a Segmentation layer.
func NewSegmentation(param config.SegmentationParameter) (*Segmentation, error) {
	return layers.NewSegmentation(param)
}

// NewSegmentationWithSegmenter creates a Segmentation layer with a custom
// segmenter.
func NewSegmentationWithSegmenter(param config.SegmentationParameter, s Segmenter) (*Segmentation, error) {
	return layers.NewSegmentationWithSegmenter(param, s)
}

// Range returns an Arity with inclusive bottom and top bounds. Pass
// Unbounded for an open maximum.
func Range(minBottom, maxBottom, minTop, maxTop int) Arity {
	return layers.Range(minBottom, maxBottom, minTop, maxTop)
}

// Unbounded marks an Arity bound as unconstrained.
const Unbounded = layers.Unbounded

// CheckBlobCounts verifies that l accepts the given bottom and top blobs.
func CheckBlobCounts(l Layer, bottom, top []*blob.Blob) error {
	return layers.CheckBlobCounts(l, bottom, top)
}
