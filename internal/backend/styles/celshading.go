package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

const (
	celMinBrightness  = 30
	celBrightnessGain = 50
	celEdgeMedian     = 5
	celEdgeBlock      = 9
	celEdgeC          = 5
)

// CelShadingParams represents typed parameters for the cel shading style
type CelShadingParams struct {
	Levels        int
	WithEdges     bool
	LineThickness int
}

// NewCelShadingParams builds CelShadingParams from validated values
func NewCelShadingParams(v stylestructure.Values) CelShadingParams {
	return CelShadingParams{
		Levels:        v.Int("levels"),
		WithEdges:     v.Bool("with_edges"),
		LineThickness: v.Int("line_thickness"),
	}
}

// CelShading posterizes the image in HSV and optionally inks the edges.
type CelShading struct{}

func (s *CelShading) Name() string {
	return "cel_shading"
}

func (s *CelShading) Description() string {
	return "Animation style flat shading with optional outlines"
}

func (s *CelShading) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("levels", 8, 3, 20, 1, "Colour levels"),
		stylestructure.BoolParam("with_edges", true, "Add outlines"),
		stylestructure.IntParam("line_thickness", 1, 1, 5, 1, "Line thickness"),
	}
}

func (s *CelShading) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewCelShadingParams(v)
	slog.Debug("CelShading: processing",
		"levels", p.Levels,
		"with_edges", p.WithEdges,
		"line_thickness", p.LineThickness)

	hsv := filters.BGRToHSV(src)
	for i := range hsv {
		hsv[i] = quantizeHSV(hsv[i], p.Levels)
	}
	result := filters.HSVToBGR(hsv, src.Width, src.Height)

	if !p.WithEdges {
		return result, nil
	}
	gray := filters.MedianBlur(pixel.ToGrayscale(src), celEdgeMedian)
	edges := filters.AdaptiveThresholdMean(gray, celEdgeBlock, celEdgeC)
	if p.LineThickness > 1 {
		edges = filters.Dilate(edges, p.LineThickness)
	}
	for i, e := range edges.Pix {
		if e < 128 {
			result.Pix[i*3], result.Pix[i*3+1], result.Pix[i*3+2] = 0, 0, 0
		}
	}
	return result, nil
}

// quantizeHSV snaps each channel to the centre of its bucket. A value v
// below celMinBrightness becomes celMinBrightness + v*celBrightnessGain/celMinBrightness.
// S and V saturate at 255 rather than wrapping.
func quantizeHSV(c filters.HSV8, levels int) filters.HSV8 {
	levels = max(levels, 1)
	hDiv := max(180/levels, 1)
	svDiv := max(256/levels, 1)

	c.H = (c.H/hDiv)*hDiv + hDiv/2
	c.S = (c.S/svDiv)*svDiv + svDiv/2
	c.V = (c.V/svDiv)*svDiv + svDiv/2
	if c.V < celMinBrightness {
		c.V = celMinBrightness + c.V*celBrightnessGain/celMinBrightness
	}
	c.S = int(pixel.SaturateInt(c.S))
	c.V = int(pixel.SaturateInt(c.V))
	return c
}
