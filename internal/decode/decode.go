// Package decode turns encoded image files into tightly packed RGBA8 pixels
// ready for texture upload.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	// Standard library decoders register via init().
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"

	// Extended decoders register via init().
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("decode: empty data")

	// ErrUnsupportedFormat is returned when the content type cannot be identified.
	ErrUnsupportedFormat = errors.New("decode: unsupported format")

	// ErrNotImage is returned when the content is a known non-image type.
	ErrNotImage = errors.New("decode: not an image")

	// ErrTooLarge is returned when the declared image size exceeds the pixel limit.
	ErrTooLarge = errors.New("decode: image too large")
)

// DefaultMaxPixels is the pixel limit used by Decode: 16384×8192, or 512 MiB
// of RGBA8.
const DefaultMaxPixels = 1 << 27

// Image is a non-premultiplied RGBA8 image with no row padding.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Solid returns a width×height image filled with one color.
func Solid(width, height int, r, g, b, a byte) *Image {
	img := NewImage(width, height)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// Sniff identifies the content type of data from its magic bytes and
// returns the canonical file extension (e.g. "png", "webp").
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", ErrUnsupportedFormat
	}
	if !filetype.IsImage(data) {
		return "", fmt.Errorf("%w: %s", ErrNotImage, kind.MIME.Value)
	}
	return kind.Extension, nil
}

// Decode sniffs and decodes an encoded image with the DefaultMaxPixels limit.
// It returns the image and the detected format extension.
func Decode(data []byte) (*Image, string, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit is like Decode but rejects images whose header declares more
// than maxPixels pixels with ErrTooLarge, before any pixel memory is
// allocated. maxPixels <= 0 disables the check.
func DecodeLimit(data []byte, maxPixels int) (*Image, string, error) {
	format, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("decode: %s: %w", format, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("decode: %s: %w", format, err)
	}
	return FromStdImage(img), format, nil
}

// Open reads and decodes the image file at path.
func Open(path string) (*Image, string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("decode: open file: %w", err)
	}
	return Decode(data)
}

// FromStdImage converts any image.Image to a packed RGBA8 Image.
func FromStdImage(img image.Image) *Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := NewImage(width, height)

	// Fast path for NRGBA images with matching layout.
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == width*4 && nrgba.Rect.Min == (image.Point{}) {
		copy(out.Pix, nrgba.Pix)
		return out
	}

	dst := &image.NRGBA{Pix: out.Pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return out
}

// ToStdImage wraps the pixels as an *image.NRGBA without copying.
func (m *Image) ToStdImage() *image.NRGBA {
	return &image.NRGBA{Pix: m.Pix, Stride: m.Width * 4, Rect: image.Rect(0, 0, m.Width, m.Height)}
}

// Fit returns m scaled down so neither side exceeds maxDim, preserving the
// aspect ratio. m is returned unchanged when it already fits or maxDim <= 0.
func (m *Image) Fit(maxDim int) *Image {
	if maxDim <= 0 || (m.Width <= maxDim && m.Height <= maxDim) {
		return m
	}
	w, h := m.Width, m.Height
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	return FromStdImage(transform.Resize(m.ToStdImage(), w, h, transform.Linear))
}

// SizeBytes returns the length of the pixel data.
func (m *Image) SizeBytes() int { return len(m.Pix) }
