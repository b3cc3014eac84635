// Package styles contains the built-in image styles. Importing it fills
// stylestructure.DefaultRegistry.
package styles

import (
	"fmt"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// DefaultStyle is used when a request names no style.
const DefaultStyle = "pencil_sketch"

func init() {
	// listing order is the registration order
	for _, p := range []stylestructure.Processor{
		&PencilSketch{},
		&ColorPencil{},
		&InkDrawing{},
		&DetailedSketch{},
		&Outline{},
		&Pointillism{},
		&Vintage{},
		&Cartoon{},
		&OilPainting{},
		&Watercolor{},
		&Mosaic{},
		&CelShading{},
	} {
		if err := stylestructure.DefaultRegistry.Register(p); err != nil {
			panic(fmt.Sprintf("failed to register %s: %v", p.Name(), err))
		}
	}
}

// prepare checks the input and widens single-channel buffers to BGR.
func prepare(style string, src *pixel.Buffer) (*pixel.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", style, err)
	}
	if src.Channels == 1 {
		return pixel.GrayToBGR(src), nil
	}
	return src, nil
}
