package filters

import (
	"math"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// SobelKernels returns the separable row and column kernels for the given
// derivative orders. An aperture of 1 means a 3-tap central difference in
// the derivative direction with no smoothing in the other.
func SobelKernels(dx, dy, ksize int) (kx, ky []float64) {
	ksize = ForceOdd(ksize)
	sizeX, sizeY := ksize, ksize
	if ksize == 1 && dx > 0 {
		sizeX = 3
	}
	if ksize == 1 && dy > 0 {
		sizeY = 3
	}
	return sobelKernel(sizeX, dx), sobelKernel(sizeY, dy)
}

// sobelKernel builds a binomial smoothing kernel of the given size and
// applies order finite-difference passes to it.
func sobelKernel(size, order int) []float64 {
	if size == 1 {
		return []float64{1}
	}
	ker := make([]int, size+1)
	ker[0] = 1
	for i := 0; i < size-order-1; i++ {
		prev := ker[0]
		for j := 1; j <= size; j++ {
			next := ker[j] + ker[j-1]
			ker[j-1] = prev
			prev = next
		}
	}
	for i := 0; i < order; i++ {
		prev := -ker[0]
		for j := 1; j <= size; j++ {
			next := ker[j-1] - ker[j]
			ker[j-1] = prev
			prev = next
		}
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = float64(ker[i])
	}
	return out
}

// Plane is a single-channel float image.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Data: make([]float64, width*height)}
}

// PlaneFromGray copies a grayscale buffer into a float plane.
func PlaneFromGray(gray *pixel.Buffer) *Plane {
	p := NewPlane(gray.Width, gray.Height)
	for i, v := range gray.Pix {
		p.Data[i] = float64(v)
	}
	return p
}

// Max returns the largest value of the plane.
func (p *Plane) Max() float64 {
	m := math.Inf(-1)
	for _, v := range p.Data {
		m = math.Max(m, v)
	}
	return m
}

// Sobel computes the (dx, dy) derivative of a plane with the given
// aperture. Borders mirror without repeating the edge.
func Sobel(src *Plane, dx, dy, ksize int) *Plane {
	kx, ky := SobelKernels(dx, dy, ksize)
	return convolveSeparable(src, kx, ky)
}

// Magnitude returns sqrt(a²+b²) element-wise.
func Magnitude(a, b *Plane) *Plane {
	out := NewPlane(a.Width, a.Height)
	for i := range out.Data {
		out.Data[i] = math.Hypot(a.Data[i], b.Data[i])
	}
	return out
}

func convolveSeparable(src *Plane, kx, ky []float64) *Plane {
	w, h := src.Width, src.Height
	rx, ry := len(kx)/2, len(ky)/2

	tmp := NewPlane(w, h)
	parallelFor(h, func(y int) {
		row := src.Data[y*w : (y+1)*w]
		out := tmp.Data[y*w : (y+1)*w]
		for x := range out {
			sum := 0.0
			for k, kv := range kx {
				sum += kv * row[reflect101(x+k-rx, w)]
			}
			out[x] = sum
		}
	})

	dst := NewPlane(w, h)
	parallelFor(h, func(y int) {
		out := dst.Data[y*w : (y+1)*w]
		for x := range out {
			sum := 0.0
			for k, kv := range ky {
				sum += kv * tmp.Data[reflect101(y+k-ry, h)*w+x]
			}
			out[x] = sum
		}
	})
	return dst
}
