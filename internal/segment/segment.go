// Package segment partitions images into a fixed number of regions.
//
// Two back-ends are provided: k-means over colour and position, and
// nearest dominant colour.
// Both return one label per pixel, row-major, in [0, k).
package segment

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/born-ml/superclass/internal/config"
)

// Segmenter assigns every pixel of an image to one of k segments.
type Segmenter interface {
	Segment(img image.Image, k int) ([]int, error)
}

// New returns the segmenter for a configured method.
func New(method string, compactness float64) (Segmenter, error) {
	switch method {
	case config.MethodKMeans, "":
		return &KMeans{Compactness: compactness}, nil
	case config.MethodDominantColor:
		return &Dominant{}, nil
	default:
		return nil, fmt.Errorf("unknown segmentation method %q", method)
	}
}

// FromPlanes builds an image from channel planes holding values in
// [0, 255]. One plane gives a grey image, three give RGB. Values outside
// the range are clamped.
func FromPlanes(planes [][]float64, w, h int) (*image.NRGBA, error) {
	if len(planes) != 1 && len(planes) != 3 {
		return nil, fmt.Errorf("need 1 or 3 channel planes, got %d", len(planes))
	}
	for i, p := range planes {
		if len(p) != w*h {
			return nil, fmt.Errorf("plane %d has %d values, want %d", i, len(p), w*h)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			r := toByte(planes[0][i])
			g, b := r, r
			if len(planes) == 3 {
				g = toByte(planes[1][i])
				b = toByte(planes[2][i])
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(max(0, min(255, math.Round(v))))
}

func checkArgs(img image.Image, k int) (int, int, error) {
	if k <= 0 {
		return 0, 0, fmt.Errorf("number of segments must be positive, got %d", k)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0, 0, fmt.Errorf("empty image")
	}
	return b.Dx(), b.Dy(), nil
}
