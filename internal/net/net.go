// Package net wires layers into a graph of named blobs and drives their
// lifecycle: setup and reshape once, then forward in declaration order and
// backward in reverse order.
//
// A Net is single-threaded. Calls on one Net must not overlap.
package net

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/layers"
)

// Common errors.
var (
	ErrNotSetUp     = errors.New("net is not set up")
	ErrUnknownBlob  = errors.New("unknown blob")
	ErrNotAnInput   = errors.New("blob is not a net input")
	ErrDuplicateTop = errors.New("blob produced by more than one layer")
)

// Option configures a Net.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger makes the net report layer setup and top shapes.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Net is an ordered list of layers connected by named blobs.
type Net struct {
	name    string
	params  []config.LayerParameter
	layers  []layers.Layer
	bottoms [][]*blob.Blob
	tops    [][]*blob.Blob

	blobs     map[string]*blob.Blob
	blobNames []string
	inputs    map[string]bool

	logger *log.Logger
	ready  bool
}

// New instantiates every layer of param and connects their blobs.
// Layers are not set up yet; feed inputs, then call Setup.
func New(param *config.NetParameter, reg *layers.Registry, opts ...Option) (*Net, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if err := param.Validate(); err != nil {
		return nil, err
	}

	n := &Net{
		name:   param.Name,
		blobs:  make(map[string]*blob.Blob),
		inputs: make(map[string]bool),
		logger: o.logger,
	}

	for _, in := range param.Inputs {
		b := blob.Empty()
		if len(in.Shape) > 0 {
			if err := b.Reshape(blob.Shape(in.Shape)); err != nil {
				return nil, errors.Wrapf(err, "input %q", in.Name)
			}
		}
		n.addBlob(in.Name, b)
		n.inputs[in.Name] = true
	}

	for i := range param.Layers {
		lp := param.Layers[i]
		layer, err := reg.Create(&lp)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %q", lp.Name)
		}

		bottom := make([]*blob.Blob, len(lp.Bottom))
		for j, name := range lp.Bottom {
			b, ok := n.blobs[name]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownBlob, "layer %q: bottom %q", lp.Name, name)
			}
			bottom[j] = b
		}

		top := make([]*blob.Blob, len(lp.Top))
		for j, name := range lp.Top {
			if b, ok := n.blobs[name]; ok {
				// A top may only reuse a name in place of one of its own bottoms.
				if !contains(lp.Bottom, name) {
					return nil, errors.Wrapf(ErrDuplicateTop, "layer %q: top %q", lp.Name, name)
				}
				top[j] = b
				continue
			}
			b := blob.Empty()
			n.addBlob(name, b)
			top[j] = b
		}

		if err := layers.CheckBlobCounts(layer, bottom, top); err != nil {
			return nil, errors.Wrapf(err, "layer %q", lp.Name)
		}

		n.params = append(n.params, lp)
		n.layers = append(n.layers, layer)
		n.bottoms = append(n.bottoms, bottom)
		n.tops = append(n.tops, top)
	}
	return n, nil
}

func (n *Net) addBlob(name string, b *blob.Blob) {
	n.blobs[name] = b
	n.blobNames = append(n.blobNames, name)
}

func contains(names []string, name string) bool {
	for _, s := range names {
		if s == name {
			return true
		}
	}
	return false
}

// Name returns the net's name.
func (n *Net) Name() string {
	return n.name
}

// NumLayers returns the number of layers.
func (n *Net) NumLayers() int {
	return len(n.layers)
}

// Layer returns the layer at index i.
func (n *Net) Layer(i int) layers.Layer {
	return n.layers[i]
}

// LayerByName returns the layer with the given name.
func (n *Net) LayerByName(name string) (layers.Layer, bool) {
	for i := range n.params {
		if n.params[i].Name == name {
			return n.layers[i], true
		}
	}
	return nil, false
}

// BlobNames returns every blob name in creation order.
func (n *Net) BlobNames() []string {
	return append([]string(nil), n.blobNames...)
}

// Blob returns the blob with the given name.
func (n *Net) Blob(name string) (*blob.Blob, bool) {
	b, ok := n.blobs[name]
	return b, ok
}

// SetInput reshapes an input blob and copies data into it.
func (n *Net) SetInput(name string, data []float64, shape blob.Shape) error {
	b, ok := n.blobs[name]
	if !ok {
		return errors.Wrapf(ErrUnknownBlob, "%q", name)
	}
	if !n.inputs[name] {
		return errors.Wrapf(ErrNotAnInput, "%q", name)
	}
	src, err := blob.FromSlice(data, shape)
	if err != nil {
		return errors.Wrapf(err, "input %q", name)
	}
	return b.CopyFrom(src, false, true)
}

// Setup runs Setup and Reshape on every layer in order. Input blobs must
// already be shaped.
func (n *Net) Setup() error {
	for i, layer := range n.layers {
		name := n.params[i].Name
		n.logger.Printf("Setting up %s (%s)", name, layer.Type())
		if err := layer.Setup(n.bottoms[i], n.tops[i]); err != nil {
			return errors.Wrapf(err, "setting up layer %q", name)
		}
		if err := layer.Reshape(n.bottoms[i], n.tops[i]); err != nil {
			return errors.Wrapf(err, "reshaping layer %q", name)
		}
		for j, top := range n.tops[i] {
			n.logger.Printf("Top shape: %s -> %s", n.params[i].Top[j], top.Shape())
		}
	}
	n.ready = true
	return nil
}

// Forward reshapes and runs every layer in order.
func (n *Net) Forward() error {
	if !n.ready {
		return ErrNotSetUp
	}
	for i, layer := range n.layers {
		if err := layer.Reshape(n.bottoms[i], n.tops[i]); err != nil {
			return errors.Wrapf(err, "reshaping layer %q", n.params[i].Name)
		}
		if err := layer.Forward(n.bottoms[i], n.tops[i]); err != nil {
			return errors.Wrapf(err, "forward through layer %q", n.params[i].Name)
		}
	}
	return nil
}

// Backward runs every layer in reverse order. Each layer's propagate_down
// flags select the bottoms that receive gradients.
func (n *Net) Backward() error {
	if !n.ready {
		return ErrNotSetUp
	}
	for i := len(n.layers) - 1; i >= 0; i-- {
		p := &n.params[i]
		propagate := make([]bool, len(n.bottoms[i]))
		for j := range propagate {
			propagate[j] = p.PropagateFor(j)
		}
		if err := n.layers[i].Backward(n.tops[i], propagate, n.bottoms[i]); err != nil {
			return errors.Wrapf(err, "backward through layer %q", p.Name)
		}
	}
	return nil
}
