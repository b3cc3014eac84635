package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

const (
	cartoonSigma      = 250
	cartoonThresholdC = 2
)

// CartoonParams represents typed parameters for the cartoon style
type CartoonParams struct {
	ColorLevels   int // bilateral diameter
	EdgeThickness int // adaptive threshold block size, always odd
	LineThickness int // dilation size of the edge mask
}

// NewCartoonParams builds CartoonParams from validated values
func NewCartoonParams(v stylestructure.Values) CartoonParams {
	return CartoonParams{
		ColorLevels:   v.Int("color_levels"),
		EdgeThickness: filters.ForceOdd(v.Int("edge_thickness")),
		LineThickness: v.Int("line_thickness"),
	}
}

// Cartoon combines bilateral colour smoothing with an adaptive threshold
// line mask.
type Cartoon struct{}

func (s *Cartoon) Name() string {
	return "cartoon"
}

func (s *Cartoon) Description() string {
	return "Flat cartoon colours with dark outlines"
}

func (s *Cartoon) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("color_levels", 9, 3, 20, 1, "Colour simplification level"),
		stylestructure.IntParam("edge_thickness", 9, 3, 15, 2, "Edge detection window").OddOnly(),
		stylestructure.IntParam("line_thickness", 1, 1, 5, 1, "Line thickness"),
	}
}

func (s *Cartoon) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewCartoonParams(v)
	slog.Debug("Cartoon: processing",
		"color_levels", p.ColorLevels,
		"edge_thickness", p.EdgeThickness,
		"line_thickness", p.LineThickness)

	color := filters.BilateralFilter(src, p.ColorLevels, cartoonSigma, cartoonSigma)

	edges := filters.AdaptiveThresholdMean(pixel.ToGrayscale(src), p.EdgeThickness, cartoonThresholdC)
	if p.LineThickness > 1 {
		edges = filters.Dilate(edges, p.LineThickness)
	}
	return filters.AndMask(color, edges), nil
}
