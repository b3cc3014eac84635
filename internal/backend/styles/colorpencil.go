package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

const colorPencilShadeFactor = 0.05

// ColorPencilParams represents typed parameters for the colour pencil style
type ColorPencilParams struct {
	SigmaS float64
	SigmaR float64
}

// NewColorPencilParams builds ColorPencilParams from validated values
func NewColorPencilParams(v stylestructure.Values) ColorPencilParams {
	return ColorPencilParams{
		SigmaS: v.Float("sigma_s"),
		SigmaR: v.Float("sigma_r"),
	}
}

// ColorPencil draws pencil shading over the chroma of the input.
type ColorPencil struct{}

func (s *ColorPencil) Name() string {
	return "color_pencil"
}

func (s *ColorPencil) Description() string {
	return "Colour pencil drawing that keeps the hues of the photo"
}

func (s *ColorPencil) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("sigma_s", 60, 20, 200, 10, "Spatial range (larger spreads colour regions)"),
		stylestructure.FloatParam("sigma_r", 0.07, 0.01, 0.2, 0.01, "Colour range (larger gives a stronger effect)"),
	}
}

func (s *ColorPencil) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewColorPencilParams(v)
	slog.Debug("ColorPencil: processing", "width", src.Width, "height", src.Height, "sigma_s", p.SigmaS, "sigma_r", p.SigmaR)

	_, color := filters.PencilSketch(src, p.SigmaS, p.SigmaR, colorPencilShadeFactor)
	return color, nil
}
