package filters

import (
	"math"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

func verticalLine(width, height, lineX int) *pixel.Buffer {
	gray := pixel.New(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x != lineX {
				gray.Pix[y*width+x] = 255
			}
		}
	}
	return gray
}

func TestForceOdd(t *testing.T) {
	tests := []struct{ in, want int }{
		{-4, 1}, {0, 1}, {1, 1}, {2, 3}, {20, 21}, {21, 21},
	}
	for _, tt := range tests {
		if got := ForceOdd(tt.in); got != tt.want {
			t.Errorf("ForceOdd(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReflect101(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{-1, 5, 1}, {-2, 5, 2}, {5, 5, 3}, {6, 5, 2}, {3, 5, 3}, {-7, 3, 1}, {4, 1, 0},
	}
	for _, tt := range tests {
		if got := reflect101(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestGaussianKernel(t *testing.T) {
	if got := GaussianKernel(5); !reflect.DeepEqual(got, []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}) {
		t.Errorf("unexpected 5-tap kernel: %v", got)
	}
	for _, k := range []int{9, 21, 51} {
		kernel := GaussianKernel(k)
		if len(kernel) != k {
			t.Fatalf("expected %d taps, got %d", k, len(kernel))
		}
		sum := 0.0
		for _, v := range kernel {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("kernel %d sums to %v", k, sum)
		}
		if kernel[k/2] <= kernel[0] {
			t.Errorf("kernel %d is not peaked at the centre", k)
		}
	}
}

func TestGaussianBlur_FlatImageUnchanged(t *testing.T) {
	src := pixel.NewFilled(12, 9, 40, 90, 200)
	got := GaussianBlur(src, 21)
	if !got.Equal(src) {
		t.Errorf("blurring a flat image changed it")
	}
}

func TestSobelKernels(t *testing.T) {
	tests := []struct {
		name           string
		dx, dy, ksize  int
		wantX, wantY   []float64
	}{
		{"ksize 1", 1, 0, 1, []float64{-1, 0, 1}, []float64{1}},
		{"ksize 3 x", 1, 0, 3, []float64{-1, 0, 1}, []float64{1, 2, 1}},
		{"ksize 3 y", 0, 1, 3, []float64{1, 2, 1}, []float64{-1, 0, 1}},
		{"ksize 5 x", 1, 0, 5, []float64{-1, -2, 0, 2, 1}, []float64{1, 4, 6, 4, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kx, ky := SobelKernels(tt.dx, tt.dy, tt.ksize)
			if !reflect.DeepEqual(kx, tt.wantX) || !reflect.DeepEqual(ky, tt.wantY) {
				t.Errorf("got (%v, %v), want (%v, %v)", kx, ky, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCanny_VerticalLine(t *testing.T) {
	edges := Canny(verticalLine(64, 64, 32), 50, 150)

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			want := uint8(0)
			if x == 31 || x == 33 {
				want = 255
			}
			if got := edges.Pix[y*64+x]; got != want {
				t.Fatalf("edge at (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestCanny_SwappedThresholds(t *testing.T) {
	src := verticalLine(32, 32, 10)
	if !Canny(src, 150, 50).Equal(Canny(src, 50, 150)) {
		t.Errorf("swapped thresholds produced a different edge map")
	}
}

func TestDilate(t *testing.T) {
	src := pixel.New(5, 5, 1)
	src.Pix[2*5+2] = 255

	got := Dilate(src, 3)
	count := 0
	for _, v := range got.Pix {
		if v == 255 {
			count++
		}
	}
	if count != 9 {
		t.Errorf("expected a 3x3 block, got %d lit pixels", count)
	}
	if !Dilate(src, 1).Equal(src) {
		t.Errorf("1x1 dilation should be the identity")
	}
}

func TestMedianBlur_RemovesSpeck(t *testing.T) {
	src := pixel.NewFilled(7, 7, 100, 100, 100)
	src.Pix[src.Offset(3, 3)+1] = 255

	got := MedianBlur(src, 5)
	if !got.Equal(pixel.NewFilled(7, 7, 100, 100, 100)) {
		t.Errorf("median did not remove the isolated sample")
	}
}

func TestAdaptiveThresholdMean(t *testing.T) {
	flat := pixel.New(10, 10, 1)
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	for _, v := range AdaptiveThresholdMean(flat, 9, 2).Pix {
		if v != 255 {
			t.Fatalf("flat region should be white, got %d", v)
		}
	}

	line := verticalLine(20, 20, 10)
	got := AdaptiveThresholdMean(line, 9, 2)
	if got.Pix[5*20+10] != 0 {
		t.Errorf("dark line should be black")
	}
	if got.Pix[5*20+2] != 255 {
		t.Errorf("background away from the line should be white")
	}
}

func TestBilateralFilter_FlatImageUnchanged(t *testing.T) {
	src := pixel.NewFilled(8, 8, 10, 20, 30)
	if !BilateralFilter(src, 9, 75, 75).Equal(src) {
		t.Errorf("bilateral filter changed a flat image")
	}
}

func TestResize(t *testing.T) {
	src := pixel.New(4, 2, 3)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}
	if !ResizeBilinear(src, 4, 2).Equal(src) {
		t.Errorf("same-size bilinear resize should be the identity")
	}

	small := pixel.NewFilled(2, 1, 0, 0, 0)
	copy(small.Pix[3:], []uint8{255, 255, 255})
	up := ResizeNearest(small, 6, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 6; x++ {
			want := uint8(0)
			if x >= 3 {
				want = 255
			}
			if got := up.Pix[up.Offset(x, y)]; got != want {
				t.Errorf("nearest pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestFillCircle(t *testing.T) {
	dst := pixel.New(9, 9, 3)
	FillCircle(dst, 4, 4, 2, []uint8{1, 2, 3})

	count := 0
	for i := 0; i < len(dst.Pix); i += 3 {
		if dst.Pix[i] == 1 && dst.Pix[i+1] == 2 && dst.Pix[i+2] == 3 {
			count++
		}
	}
	if count != 13 {
		t.Errorf("expected 13 painted pixels, got %d", count)
	}

	// clipped at the corner, must not panic
	FillCircle(dst, 0, 0, 5, []uint8{9, 9, 9})
	if dst.Pix[0] != 9 {
		t.Errorf("corner pixel not painted")
	}
}

func TestHSVRoundTrip(t *testing.T) {
	src := pixel.NewFilled(3, 3, 0, 0, 255)
	hsv := BGRToHSV(src)
	if hsv[0] != (HSV8{H: 0, S: 255, V: 255}) {
		t.Fatalf("unexpected HSV for red: %+v", hsv[0])
	}
	if !HSVToBGR(hsv, 3, 3).Equal(src) {
		t.Errorf("HSV round trip changed red")
	}

	// hue past 180 wraps
	wrapped := HSVToBGR([]HSV8{{H: 180, S: 255, V: 255}}, 1, 1)
	if wrapped.Pix[2] != 255 || wrapped.Pix[0] != 0 {
		t.Errorf("expected red after wrap, got %v", wrapped.Pix)
	}
}

func TestLineWindows(t *testing.T) {
	ct := []float64{1, 2, 3, 4, 5}
	lo, hi := make([]int, 5), make([]int, 5)
	lineWindows(ct, 1.5, lo, hi)

	wantLo := []int{0, 0, 1, 2, 3}
	wantHi := []int{2, 3, 4, 5, 5}
	if !reflect.DeepEqual(lo, wantLo) || !reflect.DeepEqual(hi, wantHi) {
		t.Errorf("got lo=%v hi=%v, want lo=%v hi=%v", lo, hi, wantLo, wantHi)
	}
}

func TestStylization_FlatImageUnchanged(t *testing.T) {
	src := pixel.NewFilled(16, 12, 30, 60, 90)
	if !Stylization(src, 60, 0.45).Equal(src) {
		t.Errorf("stylization changed a flat image")
	}
}

func TestPencilSketch_FlatImageIsWhite(t *testing.T) {
	src := pixel.NewFilled(20, 20, 128, 128, 128)
	gray, color := PencilSketch(src, 60, 0.07, 0.05)
	for i, v := range gray.Pix {
		if v != 255 {
			t.Fatalf("gray sketch pixel %d = %d, want 255", i, v)
		}
	}
	for i, v := range color.Pix {
		if v != 255 {
			t.Fatalf("colour sketch sample %d = %d, want 255", i, v)
		}
	}
}

func TestColorTransform(t *testing.T) {
	identity := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	src := pixel.NewFilled(2, 2, 5, 6, 7)
	if !ColorTransform(src, identity).Equal(src) {
		t.Errorf("identity transform changed pixels")
	}
}

func TestDivide_ZeroDivisor(t *testing.T) {
	a := pixel.New(2, 1, 1)
	b := pixel.New(2, 1, 1)
	a.Pix[0], a.Pix[1] = 100, 100
	b.Pix[0], b.Pix[1] = 0, 200

	got := Divide(a, b, 256)
	if got.Pix[0] != 0 || got.Pix[1] != 128 {
		t.Errorf("got %v, want [0 128]", got.Pix)
	}
}

func sortedWindowMedian(src *pixel.Buffer, ksize int) *pixel.Buffer {
	w, h, c := src.Width, src.Height, src.Channels
	r := ksize / 2
	dst := pixel.New(w, h, c)
	window := make([]int, 0, ksize*ksize)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				window = window[:0]
				for dy := -r; dy <= r; dy++ {
					for dx := -r; dx <= r; dx++ {
						window = append(window, int(src.Pix[src.Offset(replicate(x+dx, w), replicate(y+dy, h))+ch]))
					}
				}
				sort.Ints(window)
				dst.Pix[src.Offset(x, y)+ch] = uint8(window[len(window)/2])
			}
		}
	}
	return dst
}

func TestMedianBlur_MatchesSortedWindow(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	tests := []struct {
		name                 string
		width, height, chans int
		ksize                int
		levels               int
	}{
		{"gray 3x3 kernel", 9, 7, 1, 3, 256},
		{"bgr 5x5 kernel", 13, 5, 3, 5, 256},
		{"kernel wider than image", 3, 4, 3, 7, 256},
		{"few distinct values", 11, 11, 1, 5, 3},
		{"even size rounds up", 8, 6, 3, 4, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := pixel.New(tt.width, tt.height, tt.chans)
			for i := range src.Pix {
				src.Pix[i] = uint8(rng.IntN(tt.levels) * (255 / max(tt.levels-1, 1)))
			}
			got := MedianBlur(src, tt.ksize)
			want := sortedWindowMedian(src, ForceOdd(tt.ksize))
			if !got.Equal(want) {
				t.Errorf("MedianBlur differs from the sorted-window median:\ngot  %v\nwant %v", got.Pix, want.Pix)
			}
		})
	}
}

func TestMedianBlur_LargeKernelOnFlatImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing check in short mode")
	}
	src := pixel.NewFilled(512, 512, 90, 90, 90)

	start := time.Now()
	got := MedianBlur(src, 15)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("MedianBlur(512x512, 15) took %v", elapsed)
	}
	if !got.Equal(src) {
		t.Errorf("median of a flat image should be the image itself")
	}
}

func TestResizeNearest_TileStartsUseFloor(t *testing.T) {
	small := pixel.New(10, 1, 1)
	for i := range small.Pix {
		small.Pix[i] = uint8(i * 20)
	}

	up := ResizeNearest(small, 105, 1)
	var starts []int
	for x := 1; x < 105; x++ {
		if up.Pix[x] != up.Pix[x-1] {
			starts = append(starts, x)
		}
	}
	want := []int{11, 21, 32, 42, 53, 63, 74, 84, 95}
	if !reflect.DeepEqual(starts, want) {
		t.Errorf("tile starts = %v, want %v", starts, want)
	}
	if up.Pix[0] != 0 || up.Pix[104] != 180 {
		t.Errorf("edge samples = %d, %d, want 0, 180", up.Pix[0], up.Pix[104])
	}
}

func TestParallelFor_PanicReachesCaller(t *testing.T) {
	defer func() {
		if r := recover(); r != "row 5" {
			t.Errorf("recovered %v, want the worker panic", r)
		}
	}()

	parallelFor(16, func(y int) {
		if y == 5 {
			panic("row 5")
		}
	})
	t.Errorf("parallelFor returned normally")
}
