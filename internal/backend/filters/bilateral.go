package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// BilateralFilter smooths a buffer while keeping edges. Each output pixel
// averages the samples inside a disc of radius diameter/2, weighted by a
// spatial Gaussian (sigmaSpace) and a Gaussian of the L1 colour distance
// to the centre (sigmaColor). Borders mirror without repeating the edge.
func BilateralFilter(src *pixel.Buffer, diameter int, sigmaColor, sigmaSpace float64) *pixel.Buffer {
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}
	radius := diameter / 2
	if diameter <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	radius = max(radius, 1)

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	c := src.Channels
	colorWeight := make([]float64, 256*c)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	var taps []tap
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
		}
	}

	w, h := src.Width, src.Height
	dst := pixel.New(w, h, c)
	parallelFor(h, func(y int) {
		sum := make([]float64, c)
		for x := 0; x < w; x++ {
			center := src.Pix[src.Offset(x, y):]
			for ch := range sum {
				sum[ch] = 0
			}
			wsum := 0.0
			for _, t := range taps {
				o := src.Offset(reflect101(x+t.dx, w), reflect101(y+t.dy, h))
				dist := 0
				for ch := 0; ch < c; ch++ {
					dist += abs(int(src.Pix[o+ch]) - int(center[ch]))
				}
				wt := t.weight * colorWeight[dist]
				for ch := 0; ch < c; ch++ {
					sum[ch] += float64(src.Pix[o+ch]) * wt
				}
				wsum += wt
			}
			out := dst.Pix[dst.Offset(x, y):]
			for ch := 0; ch < c; ch++ {
				out[ch] = pixel.SaturateFloat(sum[ch] / wsum)
			}
		}
	})
	return dst
}
