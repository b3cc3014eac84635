package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// sepiaMatrix maps a BGR vector to sepia BGR, one row per output channel.
var sepiaMatrix = [3][3]float64{
	{0.272, 0.534, 0.131},
	{0.349, 0.686, 0.168},
	{0.393, 0.769, 0.189},
}

// VintageParams represents typed parameters for the vintage style
type VintageParams struct {
	Intensity float64
}

// NewVintageParams builds VintageParams from validated values
func NewVintageParams(v stylestructure.Values) VintageParams {
	return VintageParams{Intensity: v.Float("intensity")}
}

// Matrix returns the sepia matrix scaled by the intensity.
func (p VintageParams) Matrix() [3][3]float64 {
	m := sepiaMatrix
	for i := range m {
		for j := range m[i] {
			m[i][j] *= p.Intensity
		}
	}
	return m
}

// Vintage tints the image sepia.
type Vintage struct{}

func (s *Vintage) Name() string {
	return "vintage"
}

func (s *Vintage) Description() string {
	return "Sepia toned old photograph"
}

func (s *Vintage) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.FloatParam("intensity", 1.0, 0.5, 1.5, 0.1, "Sepia intensity"),
	}
}

func (s *Vintage) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewVintageParams(v)
	slog.Debug("Vintage: processing", "intensity", p.Intensity)
	return filters.ColorTransform(src, p.Matrix()), nil
}
