package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"
)

const defaultSVGSize = 512

// DefaultMaxPixels bounds the decoded size when no limit is configured.
const DefaultMaxPixels = 40_000_000

// DecodeError reports bytes that do not form a decodable image.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// TooLargeError reports an image whose decoded size exceeds the limit.
type TooLargeError struct {
	Width, Height int
	MaxPixels     int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("image of %dx%d pixels exceeds the limit of %d pixels", e.Width, e.Height, e.MaxPixels)
}

func checkSize(width, height, maxPixels int) error {
	if maxPixels > 0 && int64(width)*int64(height) > int64(maxPixels) {
		return &TooLargeError{Width: width, Height: height, MaxPixels: maxPixels}
	}
	return nil
}

// Decode turns encoded image bytes into a 3-channel BGR buffer, allowing
// up to DefaultMaxPixels pixels.
func Decode(data []byte) (*Buffer, error) {
	return DecodeLimited(data, DefaultMaxPixels)
}

// DecodeLimited turns encoded image bytes into a 3-channel BGR buffer.
// Raster formats are oriented according to their EXIF tag; SVG documents
// are rasterized on a white canvas. Alpha is discarded. The image header
// is checked against maxPixels before any pixel data is decoded; a
// non-positive maxPixels disables the check.
func DecodeLimited(data []byte, maxPixels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Cause: errors.New("empty input")}
	}

	if isSVGData(data) {
		img, err := rasterizeSVG(data, maxPixels)
		if err != nil {
			var tooLarge *TooLargeError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, &DecodeError{Cause: err}
		}
		return FromImage(img), nil
	}

	// unreadable headers are left to the full decode to report
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if err := checkSize(cfg.Width, cfg.Height, maxPixels); err != nil {
			return nil, err
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{Cause: errors.New("image has no pixels")}
	}

	slog.Debug("pixel: decoded image",
		"input_size_bytes", len(data),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return FromImage(img), nil
}

// ParseFormat maps a format name or file extension ("png", ".jpg") to an
// output format.
func ParseFormat(name string) (imaging.Format, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return imaging.PNG, nil
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	return imaging.FormatFromExtension(name)
}

// ContentType returns the MIME type for an output format.
func ContentType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// Encode serializes the buffer in the given format.
func Encode(buf *Buffer, format imaging.Format) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	out.Grow(buf.Width * buf.Height)
	if err := imaging.Encode(&out, ToImage(buf), format, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode image as %s: %w", format, err)
	}
	return out.Bytes(), nil
}

// ToImage converts the buffer into an opaque NRGBA image.
func ToImage(buf *Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < buf.Width; x++ {
			o := buf.Offset(x, y)
			p := row[x*4 : x*4+4]
			if buf.Channels == 1 {
				p[0], p[1], p[2] = buf.Pix[o], buf.Pix[o], buf.Pix[o]
			} else {
				p[0], p[1], p[2] = buf.Pix[o+2], buf.Pix[o+1], buf.Pix[o]
			}
			p[3] = 0xff
		}
	}
	return img
}

// FromImage converts any image into a 3-channel BGR buffer, keeping the
// straight colour of translucent pixels.
func FromImage(img image.Image) *Buffer {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	buf := New(w, h, 3)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			o := buf.Offset(x, y)
			buf.Pix[o] = row[x*4+2]
			buf.Pix[o+1] = row[x*4+1]
			buf.Pix[o+2] = row[x*4]
		}
	}
	return buf
}

// GrayFromImage reads the red channel of an image into a 1-channel buffer.
// It is used for the results of filters run on grayscale input.
func GrayFromImage(img *image.RGBA) *Buffer {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	buf := New(w, h, 1)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			buf.Pix[y*w+x] = row[x*4]
		}
	}
	return buf
}

// GrayImage wraps a 1-channel buffer as an image.Gray without copying.
func GrayImage(buf *Buffer) *image.Gray {
	return &image.Gray{
		Pix:    buf.Pix,
		Stride: buf.Width,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
}

func rasterizeSVG(data []byte, maxPixels int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	w, h, ok := parseSvgExplicitSize(data)
	if !ok {
		w, h = int(icon.ViewBox.W+0.5), int(icon.ViewBox.H+0.5)
	}
	if w <= 0 || h <= 0 {
		w, h = defaultSVGSize, defaultSVGSize
	}
	if err := checkSize(w, h, maxPixels); err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = float64(w), float64(h)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// isSVGData looks for an svg root element or namespace in the first 4KB.
func isSVGData(data []byte) bool {
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("http://www.w3.org/2000/svg"))
}

// parseSvgExplicitSize reads width and height from the root element. A
// viewBox alone is not treated as an explicit size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	s := strings.ToLower(string(data[:n]))
	start := strings.Index(s, "<svg")
	if start < 0 {
		return 0, 0, false
	}
	tag := s[start:]
	if end := strings.IndexByte(tag, '>'); end >= 0 {
		tag = tag[:end]
	}

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr returns the leading integer of a quoted attribute value,
// e.g. 120 for width="120px".
func parseNumericAttr(tag, attr string) (int, bool) {
	pos := 0
	for {
		i := strings.Index(tag[pos:], attr)
		if i < 0 {
			return 0, false
		}
		pos += i
		// skip matches inside longer names such as stroke-width
		if pos > 0 && tag[pos-1] != ' ' && tag[pos-1] != '\t' && tag[pos-1] != '\n' {
			pos += len(attr)
			continue
		}
		break
	}

	rest := strings.TrimLeft(tag[pos+len(attr):], " \t\n")
	if !strings.HasPrefix(rest, "=") {
		return 0, false
	}
	rest = strings.TrimLeft(rest[1:], " \t\n")
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	val := rest[1:]
	if end := strings.IndexByte(val, quote); end >= 0 {
		val = val[:end]
	}

	num, found := 0, false
	for i := 0; i < len(val); i++ {
		ch := val[i]
		if ch < '0' || ch > '9' {
			break
		}
		found = true
		num = num*10 + int(ch-'0')
	}
	if !found || num <= 0 {
		return 0, false
	}
	return num, true
}
