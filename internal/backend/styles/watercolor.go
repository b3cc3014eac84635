package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// WatercolorParams represents typed parameters for the watercolour style
type WatercolorParams struct {
	SigmaS float64
	SigmaR float64
}

// NewWatercolorParams builds WatercolorParams from validated values
func NewWatercolorParams(v stylestructure.Values) WatercolorParams {
	return WatercolorParams{
		SigmaS: v.Float("sigma_s"),
		SigmaR: v.Float("sigma_r"),
	}
}

// Watercolor applies the edge-aware stylization filter.
type Watercolor struct{}

func (s *Watercolor) Name() string {
	return "watercolor"
}

func (s *Watercolor) Description() string {
	return "Soft watercolour washes with darkened edges"
}

func (s *Watercolor) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("sigma_s", 60, 20, 200, 10, "Spatial range"),
		stylestructure.FloatParam("sigma_r", 0.6, 0.1, 1.0, 0.1, "Colour range"),
	}
}

func (s *Watercolor) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewWatercolorParams(v)
	slog.Debug("Watercolor: processing", "sigma_s", p.SigmaS, "sigma_r", p.SigmaR)
	return filters.Stylization(src, p.SigmaS, p.SigmaR), nil
}
