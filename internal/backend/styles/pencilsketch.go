package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// PencilSketchParams represents typed parameters for the pencil sketch style
type PencilSketchParams struct {
	BlurSize int     // Gaussian kernel size, always odd
	Scale    float64 // divide scale, higher values give a lighter sketch
}

// NewPencilSketchParams builds PencilSketchParams from validated values
func NewPencilSketchParams(v stylestructure.Values) PencilSketchParams {
	return PencilSketchParams{
		BlurSize: filters.ForceOdd(v.Int("blur_size")),
		Scale:    v.Float("scale"),
	}
}

// PencilSketch is the classic dodge-blend pencil drawing: the gray image
// divided by the inverted blur of its own negative.
type PencilSketch struct{}

func (s *PencilSketch) Name() string {
	return "pencil_sketch"
}

func (s *PencilSketch) Description() string {
	return "Grayscale pencil sketch made by dodge-blending the image with a blurred negative"
}

func (s *PencilSketch) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("blur_size", 21, 5, 51, 2, "Blur size (odd only, larger is smoother)").OddOnly(),
		stylestructure.FloatParam("scale", 256, 100, 400, 10, "Sketch strength"),
	}
}

func (s *PencilSketch) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewPencilSketchParams(v)
	slog.Debug("PencilSketch: processing",
		"width", src.Width,
		"height", src.Height,
		"blur_size", p.BlurSize,
		"scale", p.Scale)

	gray := pixel.ToGrayscale(src)
	blurred := filters.GaussianBlur(filters.Invert(gray), p.BlurSize)
	sketch := filters.Divide(gray, filters.Invert(blurred), p.Scale)
	return pixel.GrayToBGR(sketch), nil
}
