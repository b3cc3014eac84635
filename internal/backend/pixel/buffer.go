package pixel

import (
	"bytes"
	"fmt"
	"math"
)

// Buffer is an interleaved 8-bit image. Three-channel buffers are stored in
// BGR order; single-channel buffers hold luma.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed buffer.
func New(width, height, channels int) *Buffer {
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// NewFilled allocates a 3-channel buffer with every pixel set to (b, g, r).
func NewFilled(width, height int, b, g, r uint8) *Buffer {
	buf := New(width, height, 3)
	for i := 0; i < len(buf.Pix); i += 3 {
		buf.Pix[i] = b
		buf.Pix[i+1] = g
		buf.Pix[i+2] = r
	}
	return buf
}

// Validate checks the length invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("pixel buffer is nil")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid pixel buffer dimensions: %dx%d", b.Width, b.Height)
	}
	if b.Channels != 1 && b.Channels != 3 {
		return fmt.Errorf("unsupported channel count: %d", b.Channels)
	}
	if len(b.Pix) != b.Width*b.Height*b.Channels {
		return fmt.Errorf("pixel buffer length %d does not match %dx%dx%d", len(b.Pix), b.Width, b.Height, b.Channels)
	}
	return nil
}

// Stride returns the number of bytes per row.
func (b *Buffer) Stride() int {
	return b.Width * b.Channels
}

// Offset returns the index of channel 0 of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Channels: b.Channels}
	out.Pix = append([]uint8(nil), b.Pix...)
	return out
}

// Equal reports whether both buffers have the same shape and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Width == o.Width && b.Height == o.Height && b.Channels == o.Channels && bytes.Equal(b.Pix, o.Pix)
}

// ToGrayscale converts a BGR buffer to luma using the fixed-point
// 0.299/0.587/0.114 weighting. Single-channel input is cloned.
func ToGrayscale(src *Buffer) *Buffer {
	if src.Channels == 1 {
		return src.Clone()
	}
	const (
		shift = 14
		bw    = 1868
		gw    = 9617
		rw    = 4899
	)
	dst := New(src.Width, src.Height, 1)
	for i, j := 0, 0; j < len(dst.Pix); i, j = i+3, j+1 {
		v := int(src.Pix[i])*bw + int(src.Pix[i+1])*gw + int(src.Pix[i+2])*rw
		dst.Pix[j] = uint8((v + (1 << (shift - 1))) >> shift)
	}
	return dst
}

// GrayToBGR replicates a single channel into three.
func GrayToBGR(src *Buffer) *Buffer {
	if src.Channels == 3 {
		return src.Clone()
	}
	dst := New(src.Width, src.Height, 3)
	for i, v := range src.Pix {
		dst.Pix[i*3] = v
		dst.Pix[i*3+1] = v
		dst.Pix[i*3+2] = v
	}
	return dst
}

// SaturateFloat rounds half to even and clips to [0,255].
func SaturateFloat(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.RoundToEven(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}

// SaturateInt clips to [0,255].
func SaturateInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
