package layers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/superclass/internal/blob"
)

// writeMapping writes a mapping file into a temp dir and returns its path.
func writeMapping(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hierarchy.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func mustBlob(t *testing.T, data []float64, shape ...int) *blob.Blob {
	t.Helper()
	b, err := blob.FromSlice(data, blob.Shape(shape))
	require.NoError(t, err)
	return b
}

// setup runs Setup and Reshape the way the engine does.
func setup(t *testing.T, l Layer, bottom, top []*blob.Blob) {
	t.Helper()
	require.NoError(t, l.Setup(bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// requireStackTrace checks that err was created by github.com/pkg/errors.
func requireStackTrace(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	_, ok := err.(interface{ StackTrace() errors.StackTrace })
	require.True(t, ok, "error %q carries no stack trace", err)
}
