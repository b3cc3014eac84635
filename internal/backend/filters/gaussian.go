package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// fixed tables used for small apertures when sigma is derived from the size
var smallGaussianTables = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns the normalized 1-D kernel of an odd size with
// sigma derived from the size: 0.3*((ksize-1)*0.5-1)+0.8.
func GaussianKernel(ksize int) []float64 {
	ksize = ForceOdd(ksize)
	if table, ok := smallGaussianTables[ksize]; ok {
		return append([]float64(nil), table...)
	}

	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	scale := -0.5 / (sigma * sigma)
	kernel := make([]float64, ksize)
	sum := 0.0
	for i := range kernel {
		x := float64(i) - float64(ksize-1)*0.5
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur smooths every channel with a square ksize×ksize Gaussian.
// Even sizes are bumped to the next odd value. Borders mirror without
// repeating the edge pixel.
func GaussianBlur(src *pixel.Buffer, ksize int) *pixel.Buffer {
	ksize = ForceOdd(ksize)
	kernel := GaussianKernel(ksize)
	return separable(src, kernel, kernel)
}

// separable convolves rows with kx and columns with ky in float precision
// and rounds once at the end.
func separable(src *pixel.Buffer, kx, ky []float64) *pixel.Buffer {
	w, h, c := src.Width, src.Height, src.Channels
	rx, ry := len(kx)/2, len(ky)/2
	tmp := make([]float64, len(src.Pix))

	parallelFor(h, func(y int) {
		row := src.Pix[y*w*c:]
		out := tmp[y*w*c:]
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				sum := 0.0
				for k, kv := range kx {
					sum += kv * float64(row[reflect101(x+k-rx, w)*c+ch])
				}
				out[x*c+ch] = sum
			}
		}
	})

	dst := pixel.New(w, h, c)
	stride := w * c
	parallelFor(h, func(y int) {
		out := dst.Pix[y*stride:]
		for i := 0; i < stride; i++ {
			sum := 0.0
			for k, kv := range ky {
				sum += kv * tmp[reflect101(y+k-ry, h)*stride+i]
			}
			out[i] = pixel.SaturateFloat(sum)
		}
	})
	return dst
}
