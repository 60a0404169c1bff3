// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config describes layers and nets in YAML or JSON files.
//
// Example net definition:
//
//	name: hierarchy
//	inputs:
//	  - name: score
//	    shape: [1, 3, 1, 1]
//	layers:
//	  - name: coarse_score
//	    type: InferSuperclasses
//	    bottom: [score]
//	    top: [coarse_score]
//	    map_labels_param:
//	      mapping_file: hierarchy.txt
package config

import (
	"github.com/born-ml/superclass/internal/config"
)

// NetParameter describes a net.
type NetParameter = config.NetParameter

// InputParameter declares a caller-fed blob.
type InputParameter = config.InputParameter

// LayerParameter configures a single layer.
type LayerParameter = config.LayerParameter

// MapLabelsParameter configures MapLabels and InferSuperclasses.
type MapLabelsParameter = config.MapLabelsParameter

// SegmentationParameter configures the Segmentation layer.
type SegmentationParameter = config.SegmentationParameter

// Segmentation methods.
const (
	MethodKMeans        = config.MethodKMeans
	MethodDominantColor = config.MethodDominantColor
)

// LoadNet reads and validates a net definition file.
func LoadNet(path string) (*NetParameter, error) {
	return config.LoadNet(path)
}

// ParseNet decodes and validates a net definition.
func ParseNet(data []byte) (*NetParameter, error) {
	return config.ParseNet(data)
}
