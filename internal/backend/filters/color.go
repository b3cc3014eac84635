package filters

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// HSV8 is an 8-bit HSV triple: hue in half degrees [0,180), saturation and
// value in [0,255]. Fields are ints so callers can quantize without
// wrapping; HSVToBGR clips them.
type HSV8 struct {
	H, S, V int
}

// BGRToHSV converts every pixel of a BGR buffer to HSV8.
func BGRToHSV(src *pixel.Buffer) []HSV8 {
	out := make([]HSV8, src.Width*src.Height)
	parallelFor(src.Height, func(y int) {
		for x := 0; x < src.Width; x++ {
			o := src.Offset(x, y)
			c := colorful.Color{
				R: float64(src.Pix[o+2]) / 255,
				G: float64(src.Pix[o+1]) / 255,
				B: float64(src.Pix[o]) / 255,
			}
			h, s, v := c.Hsv()
			out[y*src.Width+x] = HSV8{
				H: int(math.Round(h/2)) % 180,
				S: int(math.Round(s * 255)),
				V: int(math.Round(v * 255)),
			}
		}
	})
	return out
}

// HSVToBGR converts HSV8 values back into a BGR buffer. Hue wraps around
// 180; saturation and value are clipped to [0,255].
func HSVToBGR(hsv []HSV8, width, height int) *pixel.Buffer {
	dst := pixel.New(width, height, 3)
	parallelFor(height, func(y int) {
		for x := 0; x < width; x++ {
			p := hsv[y*width+x]
			hue := math.Mod(float64(p.H)*2, 360)
			if hue < 0 {
				hue += 360
			}
			c := colorful.Hsv(hue, float64(pixel.SaturateInt(p.S))/255, float64(pixel.SaturateInt(p.V))/255)
			r, g, b := c.RGB255()
			o := dst.Offset(x, y)
			dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2] = b, g, r
		}
	})
	return dst
}
