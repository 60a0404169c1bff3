// Package config defines the parameter files that describe layers and the
// nets that wire them together.
//
// Files are YAML; JSON documents are accepted as well since JSON is a
// subset of YAML. Field names follow the layer parameter names used in
// net definitions (map_labels_param, segmentation_param, ...).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// maxFileSize caps a net definition file.
const maxFileSize = 1 * 1024 * 1024

// Segmentation methods.
const (
	MethodKMeans        = "kmeans"
	MethodDominantColor = "dominantcolor"
)

// NetParameter describes a net: its external inputs and its layers in
// execution order.
type NetParameter struct {
	Name   string           `yaml:"name" json:"name"`
	Inputs []InputParameter `yaml:"inputs" json:"inputs"`
	Layers []LayerParameter `yaml:"layers" json:"layers"`
}

// InputParameter declares a blob fed by the caller rather than by a layer.
type InputParameter struct {
	Name  string `yaml:"name" json:"name"`
	Shape []int  `yaml:"shape" json:"shape"`
}

// LayerParameter configures a single layer.
type LayerParameter struct {
	Name   string   `yaml:"name" json:"name"`
	Type   string   `yaml:"type" json:"type"`
	Bottom []string `yaml:"bottom" json:"bottom"`
	Top    []string `yaml:"top" json:"top"`

	// PropagateDown selects which bottoms receive gradients.
	// Missing entries default to true.
	PropagateDown []bool `yaml:"propagate_down" json:"propagate_down"`

	MapLabels    *MapLabelsParameter    `yaml:"map_labels_param" json:"map_labels_param"`
	Segmentation *SegmentationParameter `yaml:"segmentation_param" json:"segmentation_param"`
}

// MapLabelsParameter configures MapLabels and InferSuperclasses.
type MapLabelsParameter struct {
	MappingFile string `yaml:"mapping_file" json:"mapping_file"`
	// Lenient skips malformed tokens in the mapping file instead of failing.
	Lenient bool `yaml:"lenient" json:"lenient"`
	// IgnoreLabel, when set, is passed through MapLabels unchanged.
	IgnoreLabel *int `yaml:"ignore_label" json:"ignore_label"`
}

// SegmentationParameter configures the Segmentation layer.
type SegmentationParameter struct {
	Height       int     `yaml:"height" json:"height"`
	Width        int     `yaml:"width" json:"width"`
	NumSegments  int     `yaml:"num_segments" json:"num_segments"`
	SegParameter float64 `yaml:"seg_parameter" json:"seg_parameter"`
	Method       string  `yaml:"method" json:"method"`
	// Workers bounds how many images are segmented at once.
	// 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// PropagateFor reports whether bottom i should receive gradients.
func (p *LayerParameter) PropagateFor(i int) bool {
	if i < len(p.PropagateDown) {
		return p.PropagateDown[i]
	}
	return true
}

// GetMethod returns the segmentation method, defaulting to k-means.
func (p *SegmentationParameter) GetMethod() string {
	if p.Method == "" {
		return MethodKMeans
	}
	return p.Method
}

// Validate checks the segmentation parameters.
func (p *SegmentationParameter) Validate() error {
	if p.Height <= 0 || p.Width <= 0 {
		return fmt.Errorf("segmentation output size must be positive, got %dx%d", p.Height, p.Width)
	}
	if p.NumSegments <= 0 {
		return fmt.Errorf("num_segments must be positive, got %d", p.NumSegments)
	}
	if p.SegParameter < 0 {
		return fmt.Errorf("seg_parameter must be >= 0, got %g", p.SegParameter)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", p.Workers)
	}
	switch p.GetMethod() {
	case MethodKMeans, MethodDominantColor:
	default:
		return fmt.Errorf("unknown segmentation method %q", p.Method)
	}
	return nil
}

// Validate checks the net's structure. Layer-specific parameters are
// checked by the layers themselves during setup.
func (n *NetParameter) Validate() error {
	inputs := make(map[string]bool, len(n.Inputs))
	for i, in := range n.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input %d: missing name", i)
		}
		if inputs[in.Name] {
			return fmt.Errorf("input %q declared twice", in.Name)
		}
		inputs[in.Name] = true
		for _, dim := range in.Shape {
			if dim <= 0 {
				return fmt.Errorf("input %q: invalid shape %v", in.Name, in.Shape)
			}
		}
	}

	names := make(map[string]bool, len(n.Layers))
	for i := range n.Layers {
		l := &n.Layers[i]
		if l.Name == "" {
			return fmt.Errorf("layer %d: missing name", i)
		}
		if names[l.Name] {
			return fmt.Errorf("layer %q declared twice", l.Name)
		}
		names[l.Name] = true
		if l.Type == "" {
			return fmt.Errorf("layer %q: missing type", l.Name)
		}
		if len(l.PropagateDown) > len(l.Bottom) {
			return fmt.Errorf("layer %q: %d propagate_down flags for %d bottoms",
				l.Name, len(l.PropagateDown), len(l.Bottom))
		}
		if l.Segmentation != nil {
			if err := l.Segmentation.Validate(); err != nil {
				return fmt.Errorf("layer %q: %w", l.Name, err)
			}
		}
	}
	return nil
}

// ResolvePaths rewrites relative mapping file paths against dir.
func (n *NetParameter) ResolvePaths(dir string) {
	for i := range n.Layers {
		ml := n.Layers[i].MapLabels
		if ml == nil || ml.MappingFile == "" || filepath.IsAbs(ml.MappingFile) {
			continue
		}
		ml.MappingFile = filepath.Join(dir, ml.MappingFile)
	}
}

// ParseNet decodes and validates a net definition. Unknown fields are
// rejected.
func ParseNet(data []byte) (*NetParameter, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	net := &NetParameter{}
	if err := dec.Decode(net); err != nil {
		return nil, errors.Wrap(err, "failed to parse net definition")
	}
	if err := net.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid net definition")
	}
	return net, nil
}

// LoadNet reads a net definition from a .yaml, .yml or .json file and
// resolves relative mapping paths against the file's directory.
func LoadNet(path string) (*NetParameter, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("net file must have .yaml, .yml or .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat net file")
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("net file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read net file")
	}

	net, err := ParseNet(data)
	if err != nil {
		return nil, errors.Wrapf(err, "net file %q", cleanPath)
	}
	net.ResolvePaths(filepath.Dir(cleanPath))
	return net, nil
}
