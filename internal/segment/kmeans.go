package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// defaultMaxSamples keeps k-means tractable on large images.
const defaultMaxSamples = 12000

// KMeans clusters pixels on CIE-Lab colour plus position.
//
// Compactness weights the normalized x/y coordinates against colour:
// 0 clusters on colour alone, larger values favour spatially compact
// segments. Clustering runs on a regular subsample of at most MaxSamples
// pixels; every pixel is then labelled with its nearest cluster centre.
type KMeans struct {
	Compactness float64
	MaxSamples  int
}

// Segment implements Segmenter.
func (s *KMeans) Segment(img image.Image, k int) ([]int, error) {
	w, h, err := checkArgs(img, k)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	features := make([]clusters.Coordinates, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			col, _ := colorful.MakeColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			l, a, b := col.Lab()
			features[y*w+x] = clusters.Coordinates{
				l, a, b,
				s.Compactness * float64(x) / float64(w),
				s.Compactness * float64(y) / float64(h),
			}
		}
	}

	maxSamples := s.MaxSamples
	if maxSamples <= 0 {
		maxSamples = defaultMaxSamples
	}
	step := 1
	if w*h > maxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxSamples))) + 1
	}
	dataset := make(clusters.Observations, 0, min(w*h, maxSamples))
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			dataset = append(dataset, features[y*w+x])
		}
	}
	if k > len(dataset) {
		return nil, fmt.Errorf("kmeans: %d segments requested from %d sampled pixels", k, len(dataset))
	}

	cc, err := kmeans.New().Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}

	labels := make([]int, w*h)
	for i, f := range features {
		labels[i] = cc.Nearest(f)
	}
	return labels, nil
}
