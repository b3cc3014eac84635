package filters

import (
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// FillCircle paints a filled circle of the given radius centred on
// (cx, cy) into dst, using the integer midpoint algorithm and clipping
// against the buffer. bgr must hold one value per channel.
func FillCircle(dst *pixel.Buffer, cx, cy, radius int, bgr []uint8) {
	if radius < 0 {
		return
	}
	hline := func(y, x1, x2 int) {
		if y < 0 || y >= dst.Height {
			return
		}
		x1, x2 = max(x1, 0), min(x2, dst.Width-1)
		for x := x1; x <= x2; x++ {
			copy(dst.Pix[dst.Offset(x, y):], bgr[:dst.Channels])
		}
	}

	err, dx, dy := 0, radius, 0
	plus, minus := 1, (radius<<1)-1
	for dx >= dy {
		hline(cy-dy, cx-dx, cx+dx)
		hline(cy+dy, cx-dx, cx+dx)
		hline(cy-dx, cx-dy, cx+dy)
		hline(cy+dx, cx-dy, cx+dy)

		dy++
		err += plus
		plus += 2
		mask := 0
		if err > 0 {
			mask = -1
		}
		err -= minus & mask
		dx += mask
		minus -= mask & 2
	}
}
