package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// DetailedSketchParams represents typed parameters for the detailed sketch style
type DetailedSketchParams struct {
	KSize int // Sobel aperture, always odd
}

// NewDetailedSketchParams builds DetailedSketchParams from validated values
func NewDetailedSketchParams(v stylestructure.Values) DetailedSketchParams {
	return DetailedSketchParams{KSize: filters.ForceOdd(v.Int("ksize"))}
}

// DetailedSketch draws the normalized Sobel gradient magnitude as dark
// strokes on white.
type DetailedSketch struct{}

func (s *DetailedSketch) Name() string {
	return "detailed_sketch"
}

func (s *DetailedSketch) Description() string {
	return "Fine sketch shaded by gradient strength"
}

func (s *DetailedSketch) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("ksize", 3, 1, 7, 2, "Sobel kernel size (larger gives thicker lines)").OddOnly(),
	}
}

func (s *DetailedSketch) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewDetailedSketchParams(v)
	slog.Debug("DetailedSketch: processing", "width", src.Width, "height", src.Height, "ksize", p.KSize)

	gray := filters.PlaneFromGray(pixel.ToGrayscale(src))
	mag := filters.Magnitude(filters.Sobel(gray, 1, 0, p.KSize), filters.Sobel(gray, 0, 1, p.KSize))

	// a flat image has no gradient; it stays all zero and comes out white
	edges := pixel.New(src.Width, src.Height, 1)
	if peak := mag.Max(); peak > 0 {
		for i, m := range mag.Data {
			edges.Pix[i] = uint8(m / peak * 255)
		}
	}
	return pixel.GrayToBGR(filters.Invert(edges)), nil
}
