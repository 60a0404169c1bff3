package layers

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/superclass/internal/blob"
	"github.com/born-ml/superclass/internal/config"
	"github.com/born-ml/superclass/internal/parallel"
	"github.com/born-ml/superclass/internal/segment"
)

// Segmentation splits every input image into a batch of segment crops.
//
// Bottoms: images [batch, channels, height, width] with 1 or 3 channels and
// values in [0, 255], and per-image labels whose first axis is batch.
//
// Tops: crops [batch*num_segments, channels, out_height, out_width] and,
// optionally, the label of each crop's source image.
//
// Each crop is the bounding box of one segment resampled (nearest
// neighbour) to the output size, with pixels outside the segment set to 0.
// An empty segment yields an all-zero crop. The layer has no gradient.
//
// Images of a batch are segmented on up to Workers goroutines (one per CPU
// when Workers is 0), so the segmenter must be safe for concurrent use.
type Segmentation struct {
	param     config.SegmentationParameter
	segmenter segment.Segmenter
}

// NewSegmentation creates a Segmentation layer from its parameters.
func NewSegmentation(param config.SegmentationParameter) (*Segmentation, error) {
	if err := param.Validate(); err != nil {
		return nil, errors.Wrap(err, TypeSegmentation)
	}
	s, err := segment.New(param.GetMethod(), param.SegParameter)
	if err != nil {
		return nil, errors.Wrap(err, TypeSegmentation)
	}
	return &Segmentation{param: param, segmenter: s}, nil
}

// NewSegmentationWithSegmenter creates a Segmentation layer that uses the
// given segmenter instead of the configured method.
func NewSegmentationWithSegmenter(param config.SegmentationParameter, s segment.Segmenter) (*Segmentation, error) {
	if err := param.Validate(); err != nil {
		return nil, errors.Wrap(err, TypeSegmentation)
	}
	return &Segmentation{param: param, segmenter: s}, nil
}

// Type returns "Segmentation".
func (s *Segmentation) Type() string { return TypeSegmentation }

// Arity takes exactly two bottoms and one or two tops.
func (s *Segmentation) Arity() Arity {
	a := Range(Unbounded, Unbounded, 1, 2)
	a.ExactBottom = 2
	return a
}

// Setup validates the wiring.
func (s *Segmentation) Setup(bottom, top []*blob.Blob) error {
	return CheckBlobCounts(s, bottom, top)
}

// Reshape shapes the crop and label tops.
func (s *Segmentation) Reshape(bottom, top []*blob.Blob) error {
	img, labels := bottom[0], bottom[1]
	if err := s.checkBottoms(img, labels); err != nil {
		return err
	}
	k := s.param.NumSegments
	shape := blob.Shape{img.Num() * k, img.Channels(), s.param.Height, s.param.Width}
	if err := top[0].Reshape(shape); err != nil {
		return errors.Wrap(err, TypeSegmentation)
	}
	if len(top) > 1 {
		if err := top[1].Reshape(labels.Shape().WithAxis(0, img.Num()*k)); err != nil {
			return errors.Wrap(err, TypeSegmentation)
		}
	}
	return nil
}

func (s *Segmentation) checkBottoms(img, labels *blob.Blob) error {
	if img.NumAxes() != 4 {
		return &ShapeError{Layer: TypeSegmentation, Shape: img.Shape(), Reason: "images must be [N, C, H, W]"}
	}
	if c := img.Channels(); c != 1 && c != 3 {
		return &ShapeError{Layer: TypeSegmentation, Shape: img.Shape(), Reason: fmt.Sprintf("need 1 or 3 channels, got %d", c)}
	}
	if labels.NumAxes() == 0 || labels.Num() != img.Num() {
		return &ShapeError{
			Layer:  TypeSegmentation,
			Shape:  labels.Shape(),
			Reason: fmt.Sprintf("labels must have %d entries on axis 0", img.Num()),
		}
	}
	return nil
}

// Forward segments each image and writes one crop per segment.
func (s *Segmentation) Forward(bottom, top []*blob.Blob) error {
	img, labels, crops := bottom[0], bottom[1], top[0]
	if err := s.checkBottoms(img, labels); err != nil {
		return err
	}
	k := s.param.NumSegments
	channels, h, w := img.Channels(), img.Height(), img.Width()
	want := blob.Shape{img.Num() * k, channels, s.param.Height, s.param.Width}
	if !crops.Shape().Equal(want) {
		return &ShapeError{Layer: TypeSegmentation, Shape: img.Shape(), Reason: "top is not reshaped"}
	}
	if len(top) > 1 && top[1].Count() != img.Num()*k*labels.CountFrom(1) {
		return &ShapeError{Layer: TypeSegmentation, Shape: labels.Shape(), Reason: "label top is not reshaped"}
	}

	crops.ZeroData()
	// Images are independent and each writes only its own k crops.
	err := parallel.ForErr(img.Num(), func(n int) error {
		planes := make([][]float64, channels)
		for c := range planes {
			planes[c] = img.ChannelData(n, c)
		}
		picture, err := segment.FromPlanes(planes, w, h)
		if err != nil {
			return errors.Wrapf(err, "%s: image %d", TypeSegmentation, n)
		}
		assignment, err := s.segmenter.Segment(picture, k)
		if err != nil {
			return errors.Wrapf(err, "%s: image %d", TypeSegmentation, n)
		}
		if len(assignment) != w*h {
			return errors.Errorf("%s: image %d: segmenter returned %d labels for %d pixels", TypeSegmentation, n, len(assignment), w*h)
		}
		for seg := 0; seg < k; seg++ {
			s.crop(planes, assignment, seg, w, h, crops, n*k+seg)
		}
		return nil
	}, s.workers())
	if err != nil {
		return err
	}

	if len(top) > 1 {
		per := labels.CountFrom(1)
		src, dst := labels.Data(), top[1].Data()
		for n := 0; n < img.Num(); n++ {
			for seg := 0; seg < k; seg++ {
				copy(dst[(n*k+seg)*per:(n*k+seg+1)*per], src[n*per:(n+1)*per])
			}
		}
	}
	return nil
}

// crop writes segment seg of one image into crops[out].
func (s *Segmentation) crop(planes [][]float64, assignment []int, seg, w, h int, crops *blob.Blob, out int) {
	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if assignment[y*w+x] != seg {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return
	}

	boxW, boxH := maxX-minX+1, maxY-minY+1
	outH, outW := s.param.Height, s.param.Width
	for c, plane := range planes {
		dst := crops.ChannelData(out, c)
		for oy := 0; oy < outH; oy++ {
			sy := minY + oy*boxH/outH
			for ox := 0; ox < outW; ox++ {
				sx := minX + ox*boxW/outW
				if assignment[sy*w+sx] == seg {
					dst[oy*outW+ox] = plane[sy*w+sx]
				}
			}
		}
	}
}

func (s *Segmentation) workers() parallel.Config {
	cfg := parallel.PerItemConfig()
	if s.param.Workers > 0 {
		cfg.NumWorkers = s.param.Workers
	}
	return cfg
}

// Backward does nothing: segmentation has no gradient.
func (s *Segmentation) Backward(_ []*blob.Blob, _ []bool, _ []*blob.Blob) error {
	return nil
}

// String returns a string representation of the layer.
func (s *Segmentation) String() string {
	return fmt.Sprintf("Segmentation(num_segments=%d, size=%dx%d, method=%s)",
		s.param.NumSegments, s.param.Height, s.param.Width, s.param.GetMethod())
}
