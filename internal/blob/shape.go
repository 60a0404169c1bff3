package blob

import "fmt"

// Shape represents the dimensions of a blob, outermost axis first.
type Shape []int

// NumElements returns the total number of elements described by the shape.
// An empty shape describes no storage and has zero elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has at least one axis and every dimension is > 0.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("invalid shape: no axes")
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// CountFrom returns the product of dimensions from axis to the end.
// CountFrom(len(s)) is 1.
func (s Shape) CountFrom(axis int) int {
	if axis < 0 || axis > len(s) {
		panic(fmt.Sprintf("axis %d out of range for shape %v", axis, s))
	}
	n := 1
	for _, dim := range s[axis:] {
		n *= dim
	}
	return n
}

// WithAxis returns a copy of the shape with one axis replaced.
func (s Shape) WithAxis(axis, dim int) Shape {
	if axis < 0 || axis >= len(s) {
		panic(fmt.Sprintf("axis %d out of range for shape %v", axis, s))
	}
	out := s.Clone()
	out[axis] = dim
	return out
}

// String formats the shape the way layer setup logs report it: "2 3 4 4 (96)".
func (s Shape) String() string {
	out := ""
	for _, dim := range s {
		out += fmt.Sprintf("%d ", dim)
	}
	return fmt.Sprintf("%s(%d)", out, s.NumElements())
}
