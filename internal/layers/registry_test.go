package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{TypeInferSuperclasses, TypeMapLabels, TypeSegmentation}, r.Types())
	for _, typ := range r.Types() {
		_, ok := r.Get(typ)
		assert.True(t, ok, typ)
	}

	_, ok := r.Get("Convolution")
	assert.False(t, ok)
}

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry()
	path := writeMapping(t, "0 1\n2\n")

	l, err := r.Create(&config.LayerParameter{
		Name:      "coarse",
		Type:      TypeMapLabels,
		MapLabels: &config.MapLabelsParameter{MappingFile: path},
	})
	require.NoError(t, err)
	assert.IsType(t, &MapLabels{}, l)
	assert.Equal(t, TypeMapLabels, l.Type())

	l, err = r.Create(&config.LayerParameter{
		Name:      "super",
		Type:      TypeInferSuperclasses,
		MapLabels: &config.MapLabelsParameter{MappingFile: path},
	})
	require.NoError(t, err)
	assert.IsType(t, &InferSuperclasses{}, l)

	l, err = r.Create(&config.LayerParameter{
		Name:         "seg",
		Type:         TypeSegmentation,
		Segmentation: &config.SegmentationParameter{Height: 4, Width: 4, NumSegments: 2},
	})
	require.NoError(t, err)
	assert.IsType(t, &Segmentation{}, l)
}

func TestRegistry_CreateErrors(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create(&config.LayerParameter{Name: "x", Type: "Convolution"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Convolution")

	_, err = r.Create(&config.LayerParameter{Name: "seg", Type: TypeSegmentation})
	require.Error(t, err)

	// A missing map_labels_param surfaces at setup, not creation.
	l, err := r.Create(&config.LayerParameter{Name: "m", Type: TypeMapLabels})
	require.NoError(t, err)
	one := []*blob.Blob{blob.Empty()}
	require.Error(t, l.Setup(one, one))
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register("Identity", func(*config.LayerParameter) (Layer, error) {
		return NewMapLabels(config.MapLabelsParameter{}), nil
	})

	_, ok := r.Get("Identity")
	assert.True(t, ok)
	assert.Len(t, r.Types(), 4)
}

func TestArity_Check(t *testing.T) {
	tests := []struct {
		name    string
		arity   Arity
		bottoms int
		tops    int
		wantErr string
	}{
		{"within range", Range(1, 2, 1, 2), 2, 1, ""},
		{"too few bottoms", Range(1, 2, 1, 2), 0, 1, "takes at least 1 bottom"},
		{"too many bottoms", Range(1, 2, 1, 2), 3, 1, "takes at most 2 bottom"},
		{"unbounded max", Range(1, Unbounded, 1, Unbounded), 9, 9, ""},
		{"exact", Arity{ExactBottom: 2, MinBottom: Unbounded, MaxBottom: Unbounded, ExactTop: Unbounded, MinTop: 1, MaxTop: Unbounded}, 1, 1, "takes exactly 2 bottom"},
		{"too few tops", Range(1, 2, 1, 2), 1, 0, "takes at least 1 top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.arity.Check("Test", tt.bottoms, tt.tops)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
