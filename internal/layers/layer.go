// Package layers implements the label-hierarchy layers and the contract
// they share with the engine that drives them.
//
// The engine calls, in order:
//   - Setup once, with the blobs the layer is wired to
//   - Reshape whenever input shapes may have changed
//   - Forward to compute tops from bottoms
//   - Backward to compute bottom gradients from top gradients
//
// Layers never own blobs; they only read and write the buffers the engine
// passes in for the duration of a call.
package layers

import (
	"fmt"

	"github.com/born-ml/superclass/internal/blob"
)

// Layer is the lifecycle every layer implements.
type Layer interface {
	// Type returns the registry name of the layer ("MapLabels", ...).
	Type() string

	// Arity returns the number of bottom and top blobs the layer accepts.
	Arity() Arity

	// Setup performs one-time initialization such as loading files.
	Setup(bottom, top []*blob.Blob) error

	// Reshape shapes the tops from the current bottom shapes.
	Reshape(bottom, top []*blob.Blob) error

	// Forward computes top data from bottom data.
	Forward(bottom, top []*blob.Blob) error

	// Backward computes bottom diffs from top diffs. propagateDown[i]
	// reports whether bottom i needs a gradient.
	Backward(top []*blob.Blob, propagateDown []bool, bottom []*blob.Blob) error
}

// Unbounded marks an Arity bound that is not enforced.
const Unbounded = -1

// Arity bounds the number of blobs a layer is wired to.
// Exact bounds, when set, take precedence over min/max.
type Arity struct {
	ExactBottom int
	MinBottom   int
	MaxBottom   int
	ExactTop    int
	MinTop      int
	MaxTop      int
}

// Range returns an Arity with the given min/max bounds and no exact counts.
func Range(minBottom, maxBottom, minTop, maxTop int) Arity {
	return Arity{
		ExactBottom: Unbounded,
		MinBottom:   minBottom,
		MaxBottom:   maxBottom,
		ExactTop:    Unbounded,
		MinTop:      minTop,
		MaxTop:      maxTop,
	}
}

// ArityError reports a layer wired to the wrong number of blobs.
type ArityError struct {
	Layer string // Layer type
	Side  string // "bottom" or "top"
	Got   int
	Want  string // Human readable bound, e.g. "exactly 2", "at most 2"
}

// Error implements the error interface.
func (e *ArityError) Error() string {
	return fmt.Sprintf("%s layer takes %s %s blob(s), got %d", e.Layer, e.Want, e.Side, e.Got)
}

// Check verifies blob counts against the bounds.
func (a Arity) Check(layerType string, bottoms, tops int) error {
	if err := checkSide(layerType, "bottom", bottoms, a.ExactBottom, a.MinBottom, a.MaxBottom); err != nil {
		return err
	}
	return checkSide(layerType, "top", tops, a.ExactTop, a.MinTop, a.MaxTop)
}

func checkSide(layerType, side string, got, exact, lo, hi int) error {
	switch {
	case exact >= 0 && got != exact:
		return &ArityError{Layer: layerType, Side: side, Got: got, Want: fmt.Sprintf("exactly %d", exact)}
	case lo >= 0 && got < lo:
		return &ArityError{Layer: layerType, Side: side, Got: got, Want: fmt.Sprintf("at least %d", lo)}
	case hi >= 0 && got > hi:
		return &ArityError{Layer: layerType, Side: side, Got: got, Want: fmt.Sprintf("at most %d", hi)}
	}
	return nil
}

// CheckBlobCounts verifies that l can be wired to the given blobs.
func CheckBlobCounts(l Layer, bottom, top []*blob.Blob) error {
	return l.Arity().Check(l.Type(), len(bottom), len(top))
}

// ShapeError reports a bottom blob whose shape the layer cannot accept.
type ShapeError struct {
	Layer  string
	Shape  blob.Shape
	Reason string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: bottom shape %v: %s", e.Layer, []int(e.Shape), e.Reason)
}
