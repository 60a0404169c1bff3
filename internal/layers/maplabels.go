package layers

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/mapping"
)

// Layer type names.
const (
	TypeMapLabels         = "MapLabels"
	TypeInferSuperclasses = "InferSuperclasses"
	TypeSegmentation      = "Segmentation"
)

// loadTable reads the mapping file named by param. Both mapping layers use
// it during Setup; each keeps its own Table.
func loadTable(layerType string, param config.MapLabelsParameter) (*mapping.Table, error) {
	if param.MappingFile == "" {
		return nil, errors.Wrap(mapping.ErrNoMappingFile, layerType)
	}
	table, err := mapping.Load(param.MappingFile, mapping.WithLenient(param.Lenient))
	if err != nil {
		return nil, errors.Wrap(err, layerType)
	}
	if table.NumGroups() == 0 {
		return nil, errors.Errorf("%s: mapping file %q defines no groups", layerType, param.MappingFile)
	}
	return table, nil
}

// reshapePassThrough shapes the optional second top like the second bottom.
func reshapePassThrough(bottom, top []*blob.Blob) error {
	if len(bottom) < 2 || len(top) < 2 {
		return nil
	}
	return top[1].ReshapeLike(bottom[1])
}

// forwardPassThrough copies the optional second bottom into the second top.
func forwardPassThrough(bottom, top []*blob.Blob) error {
	if len(bottom) < 2 || len(top) < 2 || bottom[1] == top[1] {
		return nil
	}
	return top[1].CopyFrom(bottom[1], false, false)
}

// MapLabels replaces every fine label in its input with the label of the
// coarse group that owns it. The output has the input's shape.
//
// Labels must be non-negative integers covered by the mapping; anything
// else fails the forward pass. The optional ignore label is passed through
// unchanged. A failed forward pass writes nothing, so a layer running in
// place keeps its input. A second bottom, when wired to a second top, is
// copied through untouched.
//
// Label remapping has no gradient: Backward never writes any buffer.
//
// Example:
//
//	// mapping file: "0 1\n2\n"
//	layer := layers.NewMapLabels(config.MapLabelsParameter{MappingFile: "hierarchy.txt"})
//	// labels [0, 1, 2, 1] -> [0, 0, 1, 0]
type MapLabels struct {
	param   config.MapLabelsParameter
	table   *mapping.Table
	scratch []float64
}

// NewMapLabels creates a MapLabels layer. The mapping is loaded in Setup.
func NewMapLabels(param config.MapLabelsParameter) *MapLabels {
	return &MapLabels{param: param}
}

// NewMapLabelsWithTable creates a MapLabels layer around an already built
// table; Setup does not read any file.
func NewMapLabelsWithTable(table *mapping.Table, param config.MapLabelsParameter) *MapLabels {
	return &MapLabels{param: param, table: table}
}

// Type returns "MapLabels".
func (m *MapLabels) Type() string { return TypeMapLabels }

// Arity accepts one or two bottoms and one or two tops.
func (m *MapLabels) Arity() Arity { return Range(1, 2, 1, 2) }

// Table returns the loaded mapping, or nil before Setup.
func (m *MapLabels) Table() *mapping.Table { return m.table }

// Setup loads the mapping file.
func (m *MapLabels) Setup(bottom, top []*blob.Blob) error {
	if err := CheckBlobCounts(m, bottom, top); err != nil {
		return err
	}
	if m.table != nil {
		return nil
	}
	table, err := loadTable(TypeMapLabels, m.param)
	if err != nil {
		return err
	}
	m.table = table
	return nil
}

// Reshape gives top[0] the shape of bottom[0].
func (m *MapLabels) Reshape(bottom, top []*blob.Blob) error {
	if top[0] != bottom[0] {
		if err := top[0].ReshapeLike(bottom[0]); err != nil {
			return errors.Wrap(err, TypeMapLabels)
		}
	}
	return reshapePassThrough(bottom, top)
}

// Forward remaps every element of bottom[0] into top[0].
func (m *MapLabels) Forward(bottom, top []*blob.Blob) error {
	if m.table == nil {
		return errors.Errorf("%s: forward before setup", TypeMapLabels)
	}
	in, out := bottom[0].Data(), top[0].Data()
	if len(in) != len(out) {
		return &ShapeError{Layer: TypeMapLabels, Shape: bottom[0].Shape(), Reason: "top is not reshaped"}
	}
	// Resolve every label before writing so a failure leaves top[0]
	// untouched, also in place.
	m.scratch = append(m.scratch[:0], in...)
	for i, v := range m.scratch {
		if m.param.IgnoreLabel != nil && v == float64(*m.param.IgnoreLabel) {
			continue
		}
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return errors.Errorf("%s: element %d: label %g is not an integer", TypeMapLabels, i, v)
		}
		coarse, err := m.table.Coarse(int(v))
		if err != nil {
			return errors.Wrapf(err, "%s: element %d", TypeMapLabels, i)
		}
		m.scratch[i] = float64(coarse)
	}
	copy(out, m.scratch)
	return forwardPassThrough(bottom, top)
}

// Backward does nothing: labels carry no gradient.
func (m *MapLabels) Backward(_ []*blob.Blob, _ []bool, _ []*blob.Blob) error {
	return nil
}

// String returns a string representation of the layer.
func (m *MapLabels) String() string {
	return fmt.Sprintf("MapLabels(mapping_file=%q)", m.param.MappingFile)
}
