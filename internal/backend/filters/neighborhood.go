package filters

import (
	"math"

	"github.com/anthonynsimon/bild/convolution"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// MedianBlur replaces every sample by the median of its ksize×ksize
// neighbourhood, channel by channel, replicating edge pixels. Each row
// slides a 256-bin histogram across the image, so the cost per pixel
// grows with ksize rather than ksize².
func MedianBlur(src *pixel.Buffer, ksize int) *pixel.Buffer {
	ksize = ForceOdd(ksize)
	if ksize == 1 {
		return src.Clone()
	}
	w, h, c := src.Width, src.Height, src.Channels
	r := ksize / 2
	rank := ksize * ksize / 2

	dst := pixel.New(w, h, c)
	parallelFor(h, func(y int) {
		rows := make([]int, ksize)
		for i := range rows {
			rows[i] = replicate(y-r+i, h) * w * c
		}
		out := dst.Pix[y*w*c:]
		for ch := 0; ch < c; ch++ {
			var hist [256]int
			for dx := -r; dx <= r; dx++ {
				col := replicate(dx, w)*c + ch
				for _, row := range rows {
					hist[src.Pix[row+col]]++
				}
			}

			// m is the current median, below counts the samples smaller than m.
			m, below := 0, 0
			for x := 0; x < w; x++ {
				if x > 0 {
					drop := replicate(x-r-1, w)*c + ch
					add := replicate(x+r, w)*c + ch
					for _, row := range rows {
						v := int(src.Pix[row+drop])
						hist[v]--
						if v < m {
							below--
						}
						v = int(src.Pix[row+add])
						hist[v]++
						if v < m {
							below++
						}
					}
				}
				for below > rank {
					m--
					below -= hist[m]
				}
				for below+hist[m] <= rank {
					below += hist[m]
					m++
				}
				out[x*c+ch] = uint8(m)
			}
		}
	})
	return dst
}

// AdaptiveThresholdMean binarizes a grayscale buffer against the rounded
// mean of its blockSize×blockSize neighbourhood (edge pixels replicated):
// a pixel becomes 255 when it is brighter than mean-c and 0 otherwise.
func AdaptiveThresholdMean(gray *pixel.Buffer, blockSize int, c float64) *pixel.Buffer {
	blockSize = ForceOdd(blockSize)
	if blockSize < 3 {
		blockSize = 3
	}

	kernel := convolution.NewKernel(blockSize, blockSize)
	for i := range kernel.Matrix {
		kernel.Matrix[i] = 1
	}
	// bias 0.5 turns the library's truncation into rounding
	mean := pixel.GrayFromImage(convolution.Convolve(pixel.GrayImage(gray), kernel.Normalized(), &convolution.Options{Bias: 0.5}))

	delta := int(math.Ceil(c))
	dst := pixel.New(gray.Width, gray.Height, 1)
	for i, v := range gray.Pix {
		if int(v)-int(mean.Pix[i]) > -delta {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// Dilate takes the maximum over a ksize×ksize square anchored at its
// centre (ksize/2). Pixels outside the image are ignored. Any positive
// size is accepted.
func Dilate(src *pixel.Buffer, ksize int) *pixel.Buffer {
	if ksize <= 1 {
		return src.Clone()
	}
	w, h, c := src.Width, src.Height, src.Channels
	anchor := ksize / 2

	rows := pixel.New(w, h, c)
	parallelFor(h, func(y int) {
		in := src.Pix[y*w*c:]
		out := rows.Pix[y*w*c:]
		for x := 0; x < w; x++ {
			lo, hi := max(x-anchor, 0), min(x-anchor+ksize-1, w-1)
			for ch := 0; ch < c; ch++ {
				m := uint8(0)
				for i := lo; i <= hi; i++ {
					m = max(m, in[i*c+ch])
				}
				out[x*c+ch] = m
			}
		}
	})

	dst := pixel.New(w, h, c)
	stride := w * c
	parallelFor(h, func(y int) {
		lo, hi := max(y-anchor, 0), min(y-anchor+ksize-1, h-1)
		out := dst.Pix[y*stride:]
		for i := 0; i < stride; i++ {
			m := uint8(0)
			for j := lo; j <= hi; j++ {
				m = max(m, rows.Pix[j*stride+i])
			}
			out[i] = m
		}
	})
	return dst
}
