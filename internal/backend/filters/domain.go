package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

const domainIterations = 3

// domainTransform holds the edge-aware coordinates of an image: along every
// row (ctH) and every column (ctV) the coordinate advances by
// 1 + sigmaS/sigmaR * (L1 colour distance to the previous sample).
type domainTransform struct {
	w, h   int
	c      int
	sigmaS float64
	ctH    []float64
	ctV    []float64
}

func newDomainTransform(img []float64, w, h, c int, sigmaS, sigmaR float64) *domainTransform {
	ratio := sigmaS / sigmaR
	dt := &domainTransform{
		w: w, h: h, c: c,
		sigmaS: sigmaS,
		ctH:    make([]float64, w*h),
		ctV:    make([]float64, w*h),
	}

	dist := func(a, b int) float64 {
		d := 0.0
		for ch := 0; ch < c; ch++ {
			d += math.Abs(img[a*c+ch] - img[b*c+ch])
		}
		return d
	}

	parallelFor(h, func(y int) {
		row := y * w
		dt.ctH[row] = 1
		for x := 1; x < w; x++ {
			i := row + x
			dt.ctH[i] = dt.ctH[i-1] + 1 + ratio*dist(i, i-1)
		}
	})
	parallelFor(w, func(x int) {
		dt.ctV[x] = 1
		for y := 1; y < h; y++ {
			i := y*w + x
			dt.ctV[i] = dt.ctV[i-w] + 1 + ratio*dist(i, i-w)
		}
	})
	return dt
}

// iterationRadius returns the box radius, in domain units, of iteration i.
func (dt *domainTransform) iterationRadius(i int) float64 {
	n := float64(domainIterations)
	sigmaH := dt.sigmaS * math.Sqrt(3) * math.Pow(2, n-float64(i+1)) / math.Sqrt(math.Pow(4, n)-1)
	return math.Sqrt(3) * sigmaH
}

// lineWindows fills lo/hi so that samples lo[j]..hi[j]-1 are exactly those
// whose coordinate lies in (ct[j]-r, ct[j]+r]. Coordinates are strictly
// increasing, which lets both bounds advance monotonically.
func lineWindows(ct []float64, r float64, lo, hi []int) {
	n := len(ct)
	l, u := 0, 0
	for j := 0; j < n; j++ {
		for l < n && ct[l] <= ct[j]-r {
			l++
		}
		if u < j {
			u = j
		}
		for u < n && ct[u] <= ct[j]+r {
			u++
		}
		lo[j], hi[j] = l, u
	}
}

// normalizedConvolution filters img in place with iterated box filters in
// the transformed domain, rows first then columns.
func (dt *domainTransform) normalizedConvolution(img []float64) {
	w, h := dt.w, dt.h
	for it := 0; it < domainIterations; it++ {
		r := dt.iterationRadius(it)

		parallelFor(h, func(y int) {
			dt.boxLine(img, dt.ctH[y*w:(y+1)*w], r, y*w, 1)
		})

		parallelFor(w, func(x int) {
			ct := make([]float64, h)
			for y := range ct {
				ct[y] = dt.ctV[y*w+x]
			}
			dt.boxLine(img, ct, r, x, w)
		})
	}
}

// boxLine replaces the samples of one line (start, start+step, ...) by the
// mean of their window.
func (dt *domainTransform) boxLine(img, ct []float64, r float64, start, step int) {
	n, c := len(ct), dt.c
	lo, hi := make([]int, n), make([]int, n)
	lineWindows(ct, r, lo, hi)

	prefix := make([]float64, (n+1)*c)
	for j := 0; j < n; j++ {
		p := (start + j*step) * c
		for ch := 0; ch < c; ch++ {
			prefix[(j+1)*c+ch] = prefix[j*c+ch] + img[p+ch]
		}
	}
	for j := 0; j < n; j++ {
		p := (start + j*step) * c
		count := float64(hi[j] - lo[j])
		for ch := 0; ch < c; ch++ {
			img[p+ch] = (prefix[hi[j]*c+ch] - prefix[lo[j]*c+ch]) / count
		}
	}
}

// windowCounts returns, for the first iteration, the number of samples in
// every pixel's row window plus those in its column window.
func (dt *domainTransform) windowCounts() []float64 {
	w, h := dt.w, dt.h
	r := dt.iterationRadius(0)
	counts := make([]float64, w*h)

	parallelFor(h, func(y int) {
		lo, hi := make([]int, w), make([]int, w)
		lineWindows(dt.ctH[y*w:(y+1)*w], r, lo, hi)
		for x := 0; x < w; x++ {
			counts[y*w+x] = float64(hi[x] - lo[x])
		}
	})
	// columns run after rows finished, each column owns its own cells
	parallelFor(w, func(x int) {
		ct := make([]float64, h)
		for y := range ct {
			ct[y] = dt.ctV[y*w+x]
		}
		lo, hi := make([]int, h), make([]int, h)
		lineWindows(ct, r, lo, hi)
		for y := 0; y < h; y++ {
			counts[y*w+x] += float64(hi[y] - lo[y])
		}
	})
	return counts
}

func toUnitFloat(src *pixel.Buffer) []float64 {
	img := make([]float64, len(src.Pix))
	for i, v := range src.Pix {
		img[i] = float64(v) / 255
	}
	return img
}

// Stylization smooths the image with the edge-aware domain-transform
// filter and darkens it by the summed per-channel Sobel magnitude, which
// gives a flat, painted look with drawn edges.
func Stylization(src *pixel.Buffer, sigmaS, sigmaR float64) *pixel.Buffer {
	w, h, c := src.Width, src.Height, src.Channels
	img := toUnitFloat(src)
	dt := newDomainTransform(img, w, h, c, sigmaS, sigmaR)
	dt.normalizedConvolution(img)

	edges := NewPlane(w, h)
	for ch := 0; ch < c; ch++ {
		plane := NewPlane(w, h)
		for i := range plane.Data {
			plane.Data[i] = img[i*c+ch]
		}
		mag := Magnitude(Sobel(plane, 1, 0, 3), Sobel(plane, 0, 1, 3))
		for i, v := range mag.Data {
			edges.Data[i] += v
		}
	}

	dst := pixel.New(w, h, c)
	for i, e := range edges.Data {
		for ch := 0; ch < c; ch++ {
			dst.Pix[i*c+ch] = pixel.SaturateFloat(img[i*c+ch] * (1 - e) * 255)
		}
	}
	return dst
}

// PencilSketch produces a pencil drawing from a BGR buffer. The shading is
// shadeFactor times the domain-transform window sizes of the first filter
// iteration, clipped to [0,1]: wide windows on flat regions come out white,
// narrow windows at texture and edges come out dark. It returns the
// grayscale drawing and a colour version that keeps the chroma of the
// input and uses the drawing as luma.
func PencilSketch(src *pixel.Buffer, sigmaS, sigmaR, shadeFactor float64) (gray, color *pixel.Buffer) {
	w, h := src.Width, src.Height
	img := toUnitFloat(src)
	dt := newDomainTransform(img, w, h, src.Channels, sigmaS, sigmaR)
	counts := dt.windowCounts()

	gray = pixel.New(w, h, 1)
	color = pixel.New(w, h, 3)
	const delta = 0.5
	for i, n := range counts {
		s := math.Min(1, math.Max(0, shadeFactor*n))
		gray.Pix[i] = pixel.SaturateFloat(s * 255)

		b, g, r := img[i*3], img[i*3+1], img[i*3+2]
		y := 0.299*r + 0.587*g + 0.114*b
		cr := (r-y)*0.713 + delta
		cb := (b-y)*0.564 + delta

		color.Pix[i*3] = pixel.SaturateFloat((s + 1.773*(cb-delta)) * 255)
		color.Pix[i*3+1] = pixel.SaturateFloat((s - 0.714*(cr-delta) - 0.344*(cb-delta)) * 255)
		color.Pix[i*3+2] = pixel.SaturateFloat((s + 1.403*(cr-delta)) * 255)
	}
	return gray, color
}
