package pixel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

// createTestImage builds a PNG with every pixel set to c.
func createTestImage(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_PNGIsBGR(t *testing.T) {
	data := createTestImage(t, 4, 3, color.RGBA{R: 255, G: 10, B: 20, A: 255})

	buf, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if buf.Width != 4 || buf.Height != 3 || buf.Channels != 3 {
		t.Fatalf("unexpected shape %dx%dx%d", buf.Width, buf.Height, buf.Channels)
	}
	if err := buf.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if buf.Pix[0] != 20 || buf.Pix[1] != 10 || buf.Pix[2] != 255 {
		t.Errorf("expected BGR (20,10,255), got (%d,%d,%d)", buf.Pix[0], buf.Pix[1], buf.Pix[2])
	}
}

func TestDecode_DropsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 100, 150, 200, 128
	}
	var data bytes.Buffer
	if err := png.Encode(&data, img); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	buf, err := Decode(data.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if buf.Pix[0] != 200 || buf.Pix[1] != 150 || buf.Pix[2] != 100 {
		t.Errorf("expected straight colour (200,150,100), got (%d,%d,%d)", buf.Pix[0], buf.Pix[1], buf.Pix[2])
	}
}

func TestDecode_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("definitely not an image")},
		{name: "truncated png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestDecode_SVG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10">` +
		`<rect x="0" y="0" width="10" height="10" fill="#000000"/></svg>`)

	buf, err := Decode(svg)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if buf.Width != 20 || buf.Height != 10 {
		t.Fatalf("expected 20x10, got %dx%d", buf.Width, buf.Height)
	}
	left := buf.Offset(2, 5)
	right := buf.Offset(17, 5)
	if buf.Pix[left] > 10 {
		t.Errorf("expected black inside the rect, got %d", buf.Pix[left])
	}
	if buf.Pix[right] < 245 {
		t.Errorf("expected white background, got %d", buf.Pix[right])
	}
}

func TestParseNumericAttr(t *testing.T) {
	tests := []struct {
		tag  string
		attr string
		want int
		ok   bool
	}{
		{`<svg width="120px" height="40"`, "width", 120, true},
		{`<svg width='64' height='32'`, "height", 32, true},
		{`<svg stroke-width="3" height="9"`, "width", 0, false},
		{`<svg viewbox="0 0 10 10"`, "width", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumericAttr(tt.tag, tt.attr)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseNumericAttr(%q, %q) = %d, %v; want %d, %v", tt.tag, tt.attr, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	src := NewFilled(5, 4, 1, 2, 3)

	data, err := Encode(src, imaging.PNG)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(src) {
		t.Errorf("PNG round trip changed pixels")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    imaging.Format
		wantErr bool
	}{
		{"", imaging.PNG, false},
		{"png", imaging.PNG, false},
		{".JPG", imaging.JPEG, false},
		{"jpeg", imaging.JPEG, false},
		{"bmp", imaging.BMP, false},
		{"webp", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestToGrayscale(t *testing.T) {
	tests := []struct {
		name    string
		b, g, r uint8
		want    uint8
	}{
		{"white", 255, 255, 255, 255},
		{"black", 0, 0, 0, 0},
		{"red", 0, 0, 255, 76},
		{"green", 0, 255, 0, 150},
		{"blue", 255, 0, 0, 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gray := ToGrayscale(NewFilled(2, 2, tt.b, tt.g, tt.r))
			if gray.Channels != 1 {
				t.Fatalf("expected 1 channel, got %d", gray.Channels)
			}
			if gray.Pix[0] != tt.want {
				t.Errorf("expected %d, got %d", tt.want, gray.Pix[0])
			}
		})
	}
}

func TestSaturateFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.5, 0},
		{1.5, 2},
		{33.405, 33},
		{254.6, 255},
		{1e9, 255},
	}
	for _, tt := range tests {
		if got := SaturateFloat(tt.in); got != tt.want {
			t.Errorf("SaturateFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring width×height
// with no image data after it.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8], ihdr[9] = 8, 2 // 8-bit truecolour

	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeLimited_RejectsOversizedImages(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		maxPixels  int
		wantWidth  int
		wantHeight int
	}{
		{"small png over a tight limit", createTestImage(t, 20, 10, color.White), 100, 20, 10},
		{"header only png", pngHeader(100000, 100000), DefaultMaxPixels, 100000, 100000},
		{"svg with huge explicit size", []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="90000" height="90000"></svg>`), DefaultMaxPixels, 90000, 90000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLimited(tt.data, tt.maxPixels)
			var tooLarge *TooLargeError
			if !errors.As(err, &tooLarge) {
				t.Fatalf("expected *TooLargeError, got %v", err)
			}
			if tooLarge.Width != tt.wantWidth || tooLarge.Height != tt.wantHeight || tooLarge.MaxPixels != tt.maxPixels {
				t.Errorf("unexpected error fields %+v", tooLarge)
			}
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				t.Errorf("size rejection should not be a DecodeError")
			}
		})
	}
}

func TestDecodeLimited_WithinLimit(t *testing.T) {
	buf, err := DecodeLimited(createTestImage(t, 20, 10, color.White), 200)
	if err != nil {
		t.Fatalf("DecodeLimited failed: %v", err)
	}
	if buf.Width != 20 || buf.Height != 10 {
		t.Errorf("expected 20x10, got %dx%d", buf.Width, buf.Height)
	}

	if _, err := DecodeLimited(createTestImage(t, 20, 10, color.White), 0); err != nil {
		t.Errorf("a zero limit should disable the check, got %v", err)
	}
}
