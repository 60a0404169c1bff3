package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/superclass/internal/config"
)

// twoTone returns a w×h image whose left half is dark red and right half
// light blue.
func twoTone(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 150, G: 10, B: 10, A: 255}
			if x >= w/2 {
				c = color.NRGBA{R: 180, G: 200, B: 250, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// checkColourConsistent verifies labels are in range and that pixels of
// identical colour share a label.
func checkColourConsistent(t *testing.T, img *image.NRGBA, labels []int, k int) {
	t.Helper()
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	require.Len(t, labels, w*h)

	byColour := map[color.NRGBA]int{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			require.GreaterOrEqual(t, l, 0)
			require.Less(t, l, k)
			c := img.NRGBAAt(x, y)
			if prev, ok := byColour[c]; ok {
				require.Equal(t, prev, l, "pixel (%d,%d)", x, y)
			} else {
				byColour[c] = l
			}
		}
	}
}

func TestNew(t *testing.T) {
	s, err := New(config.MethodKMeans, 0.5)
	require.NoError(t, err)
	km, ok := s.(*KMeans)
	require.True(t, ok)
	assert.Equal(t, 0.5, km.Compactness)

	s, err = New("", 0)
	require.NoError(t, err)
	assert.IsType(t, &KMeans{}, s)

	s, err = New(config.MethodDominantColor, 0)
	require.NoError(t, err)
	assert.IsType(t, &Dominant{}, s)

	_, err = New("slic", 0)
	require.Error(t, err)
}

func TestKMeans_ColourOnly(t *testing.T) {
	img := twoTone(8, 6)
	labels, err := (&KMeans{}).Segment(img, 2)
	require.NoError(t, err)
	checkColourConsistent(t, img, labels, 2)
}

func TestKMeans_Subsampled(t *testing.T) {
	img := twoTone(40, 30)
	labels, err := (&KMeans{MaxSamples: 100}).Segment(img, 3)
	require.NoError(t, err)
	checkColourConsistent(t, img, labels, 3)
}

func TestKMeans_WithCompactness(t *testing.T) {
	img := twoTone(10, 10)
	labels, err := (&KMeans{Compactness: 2}).Segment(img, 4)
	require.NoError(t, err)
	require.Len(t, labels, 100)
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 4)
	}
}

func TestKMeans_Errors(t *testing.T) {
	_, err := (&KMeans{}).Segment(twoTone(2, 2), 0)
	require.Error(t, err)

	_, err = (&KMeans{}).Segment(twoTone(2, 2), 5)
	require.Error(t, err)

	_, err = (&KMeans{}).Segment(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 1)
	require.Error(t, err)
}

func TestDominant_Segment(t *testing.T) {
	img := twoTone(16, 16)
	labels, err := Dominant{}.Segment(img, 2)
	require.NoError(t, err)
	checkColourConsistent(t, img, labels, 2)
}

func TestFromPlanes(t *testing.T) {
	grey := []float64{0, 128, 255, 300}
	img, err := FromPlanes([][]float64{grey}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(1, 1), "values above 255 clamp")

	r := []float64{10, 20}
	g := []float64{30, 40}
	b := []float64{50, -5}
	img, err = FromPlanes([][]float64{r, g, b}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 20, G: 40, B: 0, A: 255}, img.NRGBAAt(1, 0))

	_, err = FromPlanes([][]float64{r, g}, 2, 1)
	require.Error(t, err)
	_, err = FromPlanes([][]float64{{1, 2, 3}}, 2, 1)
	require.Error(t, err)
}
