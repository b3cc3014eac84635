package styles

import (
	"log/slog"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/filters"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/stylestructure"
)

// MosaicParams represents typed parameters for the mosaic style
type MosaicParams struct {
	TileSize int
}

// NewMosaicParams builds MosaicParams from validated values
func NewMosaicParams(v stylestructure.Values) MosaicParams {
	return MosaicParams{TileSize: v.Int("tile_size")}
}

// Mosaic pixelates the image into tiles of roughly TileSize pixels.
type Mosaic struct{}

func (s *Mosaic) Name() string {
	return "mosaic"
}

func (s *Mosaic) Description() string {
	return "Blocky mosaic of square tiles"
}

func (s *Mosaic) Parameters() []stylestructure.ParameterDescriptor {
	return []stylestructure.ParameterDescriptor{
		stylestructure.IntParam("tile_size", 10, 5, 50, 5, "Tile size"),
	}
}

func (s *Mosaic) Process(src *pixel.Buffer, v stylestructure.Values) (*pixel.Buffer, error) {
	src, err := prepare(s.Name(), src)
	if err != nil {
		return nil, err
	}
	p := NewMosaicParams(v)
	tile := max(p.TileSize, 1)

	// images smaller than a tile collapse to a single sample
	smallW, smallH := max(src.Width/tile, 1), max(src.Height/tile, 1)
	slog.Debug("Mosaic: processing", "tile_size", tile, "small_width", smallW, "small_height", smallH)

	small := filters.ResizeBilinear(src, smallW, smallH)
	return filters.ResizeNearest(small, src.Width, src.Height), nil
}
