package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// OutlineParams represents typed parameters for the outline style
type OutlineParams struct {
	Threshold1 float64
	Threshold2 float64
}

// NewOutlineParams builds OutlineParams from validated values
func NewOutlineParams(v stylestructure.Values) OutlineParams {
	return OutlineParams{
		Threshold1: v.Float("threshold1"),
		Threshold2: v.Float("threshold2"),
	}
}

// Outline paints Canny edges black on a white canvas.
type Outline struct{}

func (s *Outline) Name() string {
	return "outline"
}

func (s *Outline) Description() string {
	return "Thin black outlines on a white background"
}

func (s *Outline) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("threshold1", 50, 10, 150, 10, "Low threshold"),
		stylestructure.IntParam("threshold2", 150, 50, 300, 10, "High threshold"),
	}
}

func (s *Outline) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewOutlineParams(v)
	slog.Debug("Outline: processing", "threshold1", p.Threshold1, "threshold2", p.Threshold2)

	edges := filters.Canny(pixel.ToGrayscale(src), p.Threshold1, p.Threshold2)
	dst := pixel.NewFilled(src.Width, src.Height, 255, 255, 255)
	for i, e := range edges.Pix {
		if e != 0 {
			dst.Pix[i*3], dst.Pix[i*3+1], dst.Pix[i*3+2] = 0, 0, 0
		}
	}
	return dst, nil
}
