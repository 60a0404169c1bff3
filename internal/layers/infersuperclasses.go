package layers

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/mapping"
)

// InferSuperclasses turns per-class scores over fine classes into scores
// over coarse classes by summing, per sample and position, the channels of
// every fine class in a group.
//
// Input shape:  [batch, fine_channels, ...spatial]
// Output shape: [batch, num_groups, ...spatial]
//
// The input needs at least NumFine() channels; channels past that are
// ignored. A fine class listed in several groups contributes to each.
//
// Backward copies the gradient of each coarse channel to every fine channel
// the mapping assigns to it:
//
//	bottom_diff[n, f, ...] = top_diff[n, coarse(f), ...]
//
// Fine channels no group references, and channels past NumFine(), did not
// contribute to the output and receive a zero gradient.
//
// Example:
//
//	// mapping file: "0 1\n2\n"
//	// scores [a, b, c] at one position -> [a+b, c]
//	// gradient [g0, g1] -> [g0, g0, g1]
type InferSuperclasses struct {
	param        config.MapLabelsParameter
	table        *mapping.Table
	groups       [][]int
	fineToCoarse []int
}

// NewInferSuperclasses creates an InferSuperclasses layer. The mapping is
// loaded in Setup.
func NewInferSuperclasses(param config.MapLabelsParameter) *InferSuperclasses {
	return &InferSuperclasses{param: param}
}

// NewInferSuperclassesWithTable creates an InferSuperclasses layer around
// an already built table.
func NewInferSuperclassesWithTable(table *mapping.Table) *InferSuperclasses {
	l := &InferSuperclasses{}
	l.setTable(table)
	return l
}

// Type returns "InferSuperclasses".
func (l *InferSuperclasses) Type() string { return TypeInferSuperclasses }

// Arity accepts one or two bottoms and one or two tops.
func (l *InferSuperclasses) Arity() Arity { return Range(1, 2, 1, 2) }

// Table returns the loaded mapping, or nil before Setup.
func (l *InferSuperclasses) Table() *mapping.Table { return l.table }

// Setup loads the mapping file.
func (l *InferSuperclasses) Setup(bottom, top []*blob.Blob) error {
	if err := CheckBlobCounts(l, bottom, top); err != nil {
		return err
	}
	if l.table != nil {
		return nil
	}
	table, err := loadTable(TypeInferSuperclasses, l.param)
	if err != nil {
		return err
	}
	l.setTable(table)
	return nil
}

func (l *InferSuperclasses) setTable(table *mapping.Table) {
	l.table = table
	l.groups = table.Groups()
	l.fineToCoarse = table.FineToCoarse()
}

// Reshape sets top[0] to bottom[0]'s shape with the channel axis replaced
// by the number of groups.
func (l *InferSuperclasses) Reshape(bottom, top []*blob.Blob) error {
	if l.table == nil {
		return errors.Errorf("%s: reshape before setup", TypeInferSuperclasses)
	}
	if err := l.checkBottom(bottom[0]); err != nil {
		return err
	}
	if top[0] == bottom[0] {
		return errors.Errorf("%s: cannot run in place", TypeInferSuperclasses)
	}
	if err := top[0].Reshape(l.topShape(bottom[0])); err != nil {
		return errors.Wrap(err, TypeInferSuperclasses)
	}
	return reshapePassThrough(bottom, top)
}

func (l *InferSuperclasses) checkBottom(b *blob.Blob) error {
	if b.NumAxes() < 2 {
		return &ShapeError{Layer: TypeInferSuperclasses, Shape: b.Shape(), Reason: "need at least 2 axes"}
	}
	if b.Channels() < l.table.NumFine() {
		return &ShapeError{
			Layer:  TypeInferSuperclasses,
			Shape:  b.Shape(),
			Reason: fmt.Sprintf("mapping references %d fine channels, bottom has %d", l.table.NumFine(), b.Channels()),
		}
	}
	return nil
}

func (l *InferSuperclasses) topShape(bottom *blob.Blob) blob.Shape {
	return bottom.Shape().WithAxis(1, l.table.NumGroups())
}

func (l *InferSuperclasses) checkShapes(bottom, top *blob.Blob) error {
	if err := l.checkBottom(bottom); err != nil {
		return err
	}
	if !top.Shape().Equal(l.topShape(bottom)) {
		return &ShapeError{
			Layer:  TypeInferSuperclasses,
			Shape:  bottom.Shape(),
			Reason: fmt.Sprintf("top shape %v does not match, reshape first", []int(top.Shape())),
		}
	}
	return nil
}

// Forward sums fine channels into their coarse channels.
func (l *InferSuperclasses) Forward(bottom, top []*blob.Blob) error {
	if l.table == nil {
		return errors.Errorf("%s: forward before setup", TypeInferSuperclasses)
	}
	fine, coarse := bottom[0], top[0]
	if err := l.checkShapes(fine, coarse); err != nil {
		return err
	}

	coarse.ZeroData()
	for n := 0; n < fine.Num(); n++ {
		for g, members := range l.groups {
			dst := coarse.ChannelData(n, g)
			for _, f := range members {
				floats.Add(dst, fine.ChannelData(n, f))
			}
		}
	}
	return forwardPassThrough(bottom, top)
}

// Backward copies each coarse gradient to the fine channels of its group.
// Fine channels below NumFine() that no group references are zeroed rather
// than given group 0's gradient, as are channels past NumFine(). Nothing is
// written unless propagateDown[0] is set.
func (l *InferSuperclasses) Backward(top []*blob.Blob, propagateDown []bool, bottom []*blob.Blob) error {
	if len(propagateDown) == 0 || !propagateDown[0] {
		return nil
	}
	if l.table == nil {
		return errors.Errorf("%s: backward before setup", TypeInferSuperclasses)
	}
	fine, coarse := bottom[0], top[0]
	if err := l.checkShapes(fine, coarse); err != nil {
		return err
	}

	for n := 0; n < fine.Num(); n++ {
		for f := 0; f < fine.Channels(); f++ {
			dst := fine.ChannelDiff(n, f)
			if !l.table.Mapped(f) {
				clear(dst)
				continue
			}
			copy(dst, coarse.ChannelDiff(n, l.fineToCoarse[f]))
		}
	}
	return nil
}

// String returns a string representation of the layer.
func (l *InferSuperclasses) String() string {
	if l.table == nil {
		return fmt.Sprintf("InferSuperclasses(mapping_file=%q)", l.param.MappingFile)
	}
	return fmt.Sprintf("InferSuperclasses(groups=%d, fine=%d)", l.table.NumGroups(), l.table.NumFine())
}
