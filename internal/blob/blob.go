// Package blob implements the tensor container layers read from and write to.
//
// A Blob holds two equally shaped row-major buffers: Data for activations
// and Diff for gradients. The host engine owns blobs; layers only borrow
// them for the duration of a Setup, Reshape, Forward or Backward call.
//
// Axes follow the [batch, channels, height, width] convention. Blobs with
// fewer than four axes are accepted; the legacy accessors Num, Channels,
// Height and Width report 1 for missing axes.
package blob

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Blob is an N-dimensional array with a data buffer and a gradient buffer.
type Blob struct {
	shape  Shape
	stride []int
	data   []float64
	diff   []float64
}

// Empty returns a blob with no shape and no storage.
// The engine creates blobs this way and layers shape them in Reshape.
func Empty() *Blob {
	return &Blob{}
}

// New creates a zero-filled blob with the given shape.
func New(shape Shape) (*Blob, error) {
	b := Empty()
	if err := b.Reshape(shape); err != nil {
		return nil, err
	}
	return b, nil
}

// FromSlice creates a blob whose data is a copy of the given slice.
func FromSlice(data []float64, shape Shape) (*Blob, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", []int(shape), shape.NumElements(), len(data))
	}
	b, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(b.data, data)
	return b, nil
}

// Reshape changes the blob's shape. Existing storage is reused when it is
// large enough; the contents after a reshape are unspecified.
func (b *Blob) Reshape(shape Shape) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("invalid shape: %w", err)
	}
	n := shape.NumElements()
	if cap(b.data) < n {
		b.data = make([]float64, n)
		b.diff = make([]float64, n)
	} else {
		b.data = b.data[:n]
		b.diff = b.diff[:n]
	}
	b.shape = shape.Clone()
	b.stride = shape.ComputeStrides()
	return nil
}

// ReshapeLike gives the blob the same shape as other.
func (b *Blob) ReshapeLike(other *Blob) error {
	return b.Reshape(other.shape)
}

// Shape returns the blob's shape.
func (b *Blob) Shape() Shape {
	return b.shape
}

// NumAxes returns the number of axes.
func (b *Blob) NumAxes() int {
	return len(b.shape)
}

// Count returns the total number of elements.
func (b *Blob) Count() int {
	return len(b.data)
}

// CountFrom returns the number of elements spanned by axes [axis, NumAxes).
func (b *Blob) CountFrom(axis int) int {
	return b.shape.CountFrom(axis)
}

func (b *Blob) legacyDim(axis int) int {
	if axis < len(b.shape) {
		return b.shape[axis]
	}
	return 1
}

// Num returns the batch size (axis 0).
func (b *Blob) Num() int { return b.legacyDim(0) }

// Channels returns axis 1.
func (b *Blob) Channels() int { return b.legacyDim(1) }

// Height returns axis 2.
func (b *Blob) Height() int { return b.legacyDim(2) }

// Width returns axis 3.
func (b *Blob) Width() int { return b.legacyDim(3) }

// Offset returns the flat index of the element at the given leading indices.
// Trailing indices may be omitted and default to 0.
// Panics if an index is out of bounds.
func (b *Blob) Offset(indices ...int) int {
	if len(indices) > len(b.shape) {
		panic(fmt.Sprintf("expected at most %d indices, got %d", len(b.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= b.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, b.shape[i]))
		}
		offset += idx * b.stride[i]
	}
	return offset
}

// Data returns the activation buffer.
//
// WARNING: the slice aliases the blob's memory.
func (b *Blob) Data() []float64 {
	return b.data
}

// Diff returns the gradient buffer.
//
// WARNING: the slice aliases the blob's memory.
func (b *Blob) Diff() []float64 {
	return b.diff
}

// At returns the data element at the given indices.
func (b *Blob) At(indices ...int) float64 {
	b.checkRank(indices)
	return b.data[b.Offset(indices...)]
}

// Set stores value at the given indices.
func (b *Blob) Set(value float64, indices ...int) {
	b.checkRank(indices)
	b.data[b.Offset(indices...)] = value
}

func (b *Blob) checkRank(indices []int) {
	if len(indices) != len(b.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(b.shape), len(indices)))
	}
}

// ChannelData returns the contiguous data span of sample n, channel c:
// every element with those two leading indices.
func (b *Blob) ChannelData(n, c int) []float64 {
	return b.channelSpan(b.data, n, c)
}

// ChannelDiff is ChannelData for the gradient buffer.
func (b *Blob) ChannelDiff(n, c int) []float64 {
	return b.channelSpan(b.diff, n, c)
}

func (b *Blob) channelSpan(buf []float64, n, c int) []float64 {
	if len(b.shape) < 2 {
		panic(fmt.Sprintf("channel span needs at least 2 axes, shape is %v", []int(b.shape)))
	}
	start := b.Offset(n, c)
	return buf[start : start+b.stride[1]]
}

// ZeroData sets every data element to 0.
func (b *Blob) ZeroData() {
	clear(b.data)
}

// ZeroDiff sets every gradient element to 0.
func (b *Blob) ZeroDiff() {
	clear(b.diff)
}

// AsumData returns the sum of absolute data values.
func (b *Blob) AsumData() float64 {
	return floats.Norm(b.data, 1)
}

// AsumDiff returns the sum of absolute gradient values.
func (b *Blob) AsumDiff() float64 {
	return floats.Norm(b.diff, 1)
}

// SumsqData returns the sum of squared data values.
func (b *Blob) SumsqData() float64 {
	return floats.Dot(b.data, b.data)
}

// SumsqDiff returns the sum of squared gradient values.
func (b *Blob) SumsqDiff() float64 {
	return floats.Dot(b.diff, b.diff)
}

// ScaleData multiplies every data element by c.
func (b *Blob) ScaleData(c float64) {
	floats.Scale(c, b.data)
}

// ScaleDiff multiplies every gradient element by c.
func (b *Blob) ScaleDiff(c float64) {
	floats.Scale(c, b.diff)
}

// CopyFrom copies data (or diff, when diff is true) from src.
// When reshape is true the blob first takes src's shape; otherwise the
// element counts must match.
func (b *Blob) CopyFrom(src *Blob, diff, reshape bool) error {
	if reshape {
		if err := b.ReshapeLike(src); err != nil {
			return err
		}
	} else if src.Count() != b.Count() {
		return fmt.Errorf("copy from blob with %d elements into blob with %d", src.Count(), b.Count())
	}
	if diff {
		copy(b.diff, src.diff)
	} else {
		copy(b.data, src.data)
	}
	return nil
}

// String returns a short description of the blob.
func (b *Blob) String() string {
	return fmt.Sprintf("Blob(%s)", b.shape)
}
