package filters

import (
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// Invert returns 255-v for every sample.
func Invert(src *pixel.Buffer) *pixel.Buffer {
	dst := pixel.New(src.Width, src.Height, src.Channels)
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// Divide computes round(a*scale/b) per sample. A zero divisor yields zero.
func Divide(a, b *pixel.Buffer, scale float64) *pixel.Buffer {
	dst := pixel.New(a.Width, a.Height, a.Channels)
	for i, v := range a.Pix {
		if b.Pix[i] == 0 {
			continue
		}
		dst.Pix[i] = pixel.SaturateFloat(float64(v) * scale / float64(b.Pix[i]))
	}
	return dst
}

// AndMask keeps each pixel of src ANDed bitwise with the single-channel
// mask value at the same position.
func AndMask(src, mask *pixel.Buffer) *pixel.Buffer {
	c := src.Channels
	dst := pixel.New(src.Width, src.Height, c)
	for i, m := range mask.Pix {
		for ch := 0; ch < c; ch++ {
			dst.Pix[i*c+ch] = src.Pix[i*c+ch] & m
		}
	}
	return dst
}

// ColorTransform multiplies every BGR pixel vector by m (row i produces
// output channel i) and saturates the result.
func ColorTransform(src *pixel.Buffer, m [3][3]float64) *pixel.Buffer {
	dst := pixel.New(src.Width, src.Height, 3)
	parallelFor(src.Height, func(y int) {
		start := y * src.Width * 3
		for i := start; i < start+src.Width*3; i += 3 {
			b, g, r := float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2])
			for row := 0; row < 3; row++ {
				dst.Pix[i+row] = pixel.SaturateFloat(m[row][0]*b + m[row][1]*g + m[row][2]*r)
			}
		}
	})
	return dst
}
