package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

const (
	cannyShift = 15
	// tan(22.5°) in Q15
	cannyTG22 = 13573
)

// edge map states
const (
	cannyCandidate uint8 = iota
	cannyNone
	cannyStrong
)

// Canny detects edges in a grayscale buffer using a 3×3 Sobel gradient,
// L1 magnitude, non-maximum suppression and hysteresis between the two
// thresholds. Edge pixels are 255, everything else 0. The thresholds are
// floored and swapped when given in the wrong order.
func Canny(gray *pixel.Buffer, threshold1, threshold2 float64) *pixel.Buffer {
	low, high := int(math.Floor(threshold1)), int(math.Floor(threshold2))
	if low > high {
		low, high = high, low
	}

	w, h := gray.Width, gray.Height
	dx, dy := sobel3Int(gray)

	// magnitude with a one-pixel zero frame so neighbours never go out of range
	mw := w + 2
	mag := make([]int, mw*(h+2))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			mag[(y+1)*mw+x+1] = abs(dx[i]) + abs(dy[i])
		}
	}

	edgeMap := make([]uint8, w*h)
	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			i := y*w + x
			mi := (y+1)*mw + x + 1
			m := mag[mi]
			state := cannyNone
			if m > low && isLocalMax(mag, mi, mw, dx[i], dy[i]) {
				state = cannyCandidate
				if m > high {
					state = cannyStrong
				}
			}
			edgeMap[i] = state
		}
	})

	// hysteresis: grow strong edges through connected candidates
	stack := make([]int, 0, w)
	for i, s := range edgeMap {
		if s == cannyStrong {
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			if ny < 0 || ny >= h {
				continue
			}
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w {
					continue
				}
				j := ny*w + nx
				if edgeMap[j] == cannyCandidate {
					edgeMap[j] = cannyStrong
					stack = append(stack, j)
				}
			}
		}
	}

	dst := pixel.New(w, h, 1)
	for i, s := range edgeMap {
		if s == cannyStrong {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// isLocalMax compares the magnitude at mi against its two neighbours along
// the quantized gradient direction.
func isLocalMax(mag []int, mi, stride, xs, ys int) bool {
	m := mag[mi]
	x := abs(xs)
	y := abs(ys) << cannyShift
	tg22x := x * cannyTG22

	if y < tg22x {
		return m > mag[mi-1] && m >= mag[mi+1]
	}
	tg67x := tg22x + (x << (cannyShift + 1))
	if y > tg67x {
		return m > mag[mi-stride] && m >= mag[mi+stride]
	}
	s := 1
	if (xs ^ ys) < 0 {
		s = -1
	}
	return m > mag[mi-stride-s] && m > mag[mi+stride+s]
}

// sobel3Int returns the 3×3 Sobel derivatives with replicated borders.
func sobel3Int(gray *pixel.Buffer) (dx, dy []int) {
	w, h := gray.Width, gray.Height
	dx = make([]int, w*h)
	dy = make([]int, w*h)
	at := func(x, y int) int {
		return int(gray.Pix[replicate(y, h)*w+replicate(x, w)])
	}
	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)
			dx[y*w+x] = (tr + 2*r + br) - (tl + 2*l + bl)
			dy[y*w+x] = (bl + 2*b + br) - (tl + 2*t + tr)
		}
	})
	return dx, dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
