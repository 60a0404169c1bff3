package layers

import (
	"fmt"
	"sort"

	"github.com/born-ml/superclass/internal/config"
)

// Factory creates a layer from its parameters.
type Factory func(param *config.LayerParameter) (Layer, error)

// Registry maps layer type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with every built-in layer registered.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}

	r.Register(TypeMapLabels, func(p *config.LayerParameter) (Layer, error) {
		return NewMapLabels(mapLabelsParam(p)), nil
	})
	r.Register(TypeInferSuperclasses, func(p *config.LayerParameter) (Layer, error) {
		return NewInferSuperclasses(mapLabelsParam(p)), nil
	})
	r.Register(TypeSegmentation, func(p *config.LayerParameter) (Layer, error) {
		if p.Segmentation == nil {
			return nil, fmt.Errorf("%s: missing segmentation_param", TypeSegmentation)
		}
		return NewSegmentation(*p.Segmentation)
	})

	return r
}

// mapLabelsParam returns the layer's map_labels_param or the zero value,
// which Setup rejects for its empty mapping path.
func mapLabelsParam(p *config.LayerParameter) config.MapLabelsParameter {
	if p.MapLabels == nil {
		return config.MapLabelsParameter{}
	}
	return *p.MapLabels
}

// Register adds or replaces a layer factory.
func (r *Registry) Register(layerType string, f Factory) {
	r.factories[layerType] = f
}

// Get returns the factory for a layer type.
func (r *Registry) Get(layerType string) (Factory, bool) {
	f, ok := r.factories[layerType]
	return f, ok
}

// Create builds the layer described by param.
func (r *Registry) Create(param *config.LayerParameter) (Layer, error) {
	f, ok := r.factories[param.Type]
	if !ok {
		return nil, fmt.Errorf("unknown layer type %q (known: %v)", param.Type, r.Types())
	}
	return f(param)
}

// Types returns the registered layer types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
