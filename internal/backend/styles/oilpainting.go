package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// OilPaintingParams represents typed parameters for the oil painting style
type OilPaintingParams struct {
	BlurIterations int
	BlurSize       int // median kernel size, always odd
}

// NewOilPaintingParams builds OilPaintingParams from validated values
func NewOilPaintingParams(v stylestructure.Values) OilPaintingParams {
	return OilPaintingParams{
		BlurIterations: v.Int("blur_iterations"),
		BlurSize:       filters.ForceOdd(v.Int("blur_size")),
	}
}

// OilPainting flattens texture with repeated median blurs and then
// smooths colour with a bilateral filter.
type OilPainting struct{}

func (s *OilPainting) Name() string {
	return "oil_painting"
}

func (s *OilPainting) Description() string {
	return "Thick, blotchy brushwork of an oil painting"
}

func (s *OilPainting) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("blur_iterations", 2, 1, 5, 1, "Number of blur passes"),
		stylestructure.IntParam("blur_size", 7, 3, 15, 2, "Blur size").OddOnly(),
	}
}

func (s *OilPainting) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewOilPaintingParams(v)
	slog.Debug("OilPainting: processing", "blur_iterations", p.BlurIterations, "blur_size", p.BlurSize)

	result := src
	for i := 0; i < p.BlurIterations; i++ {
		result = filters.MedianBlur(result, p.BlurSize)
	}
	return filters.BilateralFilter(result, 9, 75, 75), nil
}
