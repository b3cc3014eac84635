package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// ResizeBilinear resamples to width×height with bilinear interpolation on
// pixel centres: source x = (dx+0.5)*srcW/dstW - 0.5, clamped to the image.
func ResizeBilinear(src *pixel.Buffer, width, height int) *pixel.Buffer {
	c := src.Channels
	xs := linearTaps(src.Width, width)
	ys := linearTaps(src.Height, height)

	dst := pixel.New(width, height, c)
	parallelFor(height, func(y int) {
		ty := ys[y]
		row0 := src.Pix[ty.i0*src.Width*c:]
		row1 := src.Pix[ty.i1*src.Width*c:]
		out := dst.Pix[y*width*c:]
		for x := 0; x < width; x++ {
			tx := xs[x]
			for ch := 0; ch < c; ch++ {
				top := float64(row0[tx.i0*c+ch])*(1-tx.f) + float64(row0[tx.i1*c+ch])*tx.f
				bottom := float64(row1[tx.i0*c+ch])*(1-tx.f) + float64(row1[tx.i1*c+ch])*tx.f
				out[x*c+ch] = pixel.SaturateFloat(top*(1-ty.f) + bottom*ty.f)
			}
		}
	})
	return dst
}

type linearTap struct {
	i0, i1 int
	f      float64
}

func linearTaps(srcLen, dstLen int) []linearTap {
	scale := float64(srcLen) / float64(dstLen)
	taps := make([]linearTap, dstLen)
	for d := range taps {
		s := (float64(d)+0.5)*scale - 0.5
		i0 := int(math.Floor(s))
		f := s - float64(i0)
		if i0 < 0 {
			i0, f = 0, 0
		}
		if i0 >= srcLen-1 {
			i0, f = srcLen-1, 0
		}
		taps[d] = linearTap{i0: i0, i1: min(i0+1, srcLen-1), f: f}
	}
	return taps
}

// ResizeNearest resamples to width×height taking, for destination pixel
// dx, the source pixel floor(dx*srcW/dstW). Each source pixel therefore
// starts its run at the first destination index that maps onto it.
func ResizeNearest(src *pixel.Buffer, width, height int) *pixel.Buffer {
	c := src.Channels
	xs := nearestTaps(src.Width, width)
	ys := nearestTaps(src.Height, height)

	dst := pixel.New(width, height, c)
	parallelFor(height, func(y int) {
		in := src.Pix[ys[y]*src.Width*c:]
		out := dst.Pix[y*width*c:]
		for x, sx := range xs {
			copy(out[x*c:(x+1)*c], in[sx*c:(sx+1)*c])
		}
	})
	return dst
}

func nearestTaps(srcLen, dstLen int) []int {
	scale := 1 / (float64(dstLen) / float64(srcLen))
	taps := make([]int, dstLen)
	for d := range taps {
		taps[d] = min(int(math.Floor(float64(d)*scale)), srcLen-1)
	}
	return taps
}
