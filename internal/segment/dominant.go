package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

// Dominant extracts up to k dominant colours and assigns every pixel to
// the closest one in Lab space. Position plays no part, so a segment may
// be spatially disconnected.
type Dominant struct{}

// Segment implements Segmenter.
func (Dominant) Segment(img image.Image, k int) ([]int, error) {
	w, h, err := checkArgs(img, k)
	if err != nil {
		return nil, err
	}

	found := dominantcolor.FindWeight(img, k)
	if len(found) == 0 {
		return nil, fmt.Errorf("dominantcolor: no colours found")
	}
	if len(found) > k {
		found = found[:k]
	}
	palette := make([]colorful.Color, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		palette = append(palette, col)
	}

	bounds := img.Bounds()
	labels := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			col, _ := colorful.MakeColor(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			best, bestDist := 0, math.Inf(1)
			for i, p := range palette {
				if d := col.DistanceLab(p); d < bestDist {
					best, bestDist = i, d
				}
			}
			labels[y*w+x] = best
		}
	}
	return labels, nil
}
