package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// InkDrawingParams represents typed parameters for the ink drawing style
type InkDrawingParams struct {
	Threshold1    float64
	Threshold2    float64
	LineThickness int // 0 keeps the one pixel Canny lines
}

// NewInkDrawingParams builds InkDrawingParams from validated values
func NewInkDrawingParams(v stylestructure.Values) InkDrawingParams {
	return InkDrawingParams{
		Threshold1:    v.Float("threshold1"),
		Threshold2:    v.Float("threshold2"),
		LineThickness: v.Int("line_thickness"),
	}
}

// InkDrawing renders Canny edges as black lines on white paper.
type InkDrawing struct{}

func (s *InkDrawing) Name() string {
	return "ink_drawing"
}

func (s *InkDrawing) Description() string {
	return "Black ink lines traced along the detected edges"
}

func (s *InkDrawing) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("threshold1", 50, 10, 200, 10, "Low threshold (smaller gives more lines)"),
		stylestructure.IntParam("threshold2", 150, 50, 300, 10, "High threshold (larger keeps only major lines)"),
		stylestructure.IntParam("line_thickness", 1, 0, 5, 1, "Line thickness (0 thin, 5 thick)"),
	}
}

func (s *InkDrawing) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewInkDrawingParams(v)
	slog.Debug("InkDrawing: processing",
		"threshold1", p.Threshold1,
		"threshold2", p.Threshold2,
		"line_thickness", p.LineThickness)

	edges := filters.Canny(pixel.ToGrayscale(src), p.Threshold1, p.Threshold2)
	if p.LineThickness > 0 {
		edges = filters.Dilate(edges, p.LineThickness)
	}
	return pixel.GrayToBGR(filters.Invert(edges)), nil
}
