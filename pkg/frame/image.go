// BGR24 and Gray16 implementations using the stdlib image.Image interface.
// BGR24 matches ffmpeg pix_fmt bgr24, Gray16 matches gray16le.

package frame

import (
	"image"
	"image/color"
	"math/bits"
)

// BGR Color.
type BGR struct {
	B, G, R uint8
}

// RGBA .
func (c BGR) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8

	g = uint32(c.G)
	g |= g << 8

	b = uint32(c.B)
	b |= b << 8

	a = 0xffff
	return
}

// NewBGR24 .
func NewBGR24(r image.Rectangle) *BGR24 {
	return &BGR24{
		Pix:    make([]uint8, pixelBufferLength(3, r)),
		Stride: 3 * r.Dx(),
		Rect:   r,
	}
}

// BGR24 is an in-memory image whose At method returns BGR values.
type BGR24 struct {

	// Pix holds the image's pixels, in B, G, R order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int

	// Rect is the image's bounds.
	Rect image.Rectangle
}

// ColorModel .
func (p *BGR24) ColorModel() color.Model { return BGR24Model }

// Bounds .
func (p *BGR24) Bounds() image.Rectangle { return p.Rect }

// At .
func (p *BGR24) At(x, y int) color.Color {
	return p.BGR24At(x, y)
}

// BGR24At .
func (p *BGR24) BGR24At(x, y int) BGR {
	if !(image.Point{x, y}.In(p.Rect)) {
		return BGR{}
	}

	i := p.PixOffset(x, y)

	return BGR{p.Pix[i], p.Pix[i+1], p.Pix[i+2]}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *BGR24) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// BGR24Model .
var BGR24Model color.Model = color.ModelFunc(bgrModel)

func bgrModel(c color.Color) color.Color {
	if _, ok := c.(BGR); ok {
		return c
	}
	r, g, b, _ := c.RGBA()

	return BGR{uint8(b >> 8), uint8(g >> 8), uint8(r >> 8)}
}

// DecodeBGR24 copies a raw bgr24 buffer into a new image.
// The image does not alias buf.
func DecodeBGR24(buf []byte, width int, height int) *BGR24 {
	img := NewBGR24(image.Rect(0, 0, width, height))
	copy(img.Pix, buf)
	return img
}

// NewGray16 .
func NewGray16(r image.Rectangle) *Gray16 {
	return &Gray16{
		Pix:    make([]uint8, pixelBufferLength(2, r)),
		Stride: 2 * r.Dx(),
		Rect:   r,
	}
}

// Gray16 is an in-memory image of little-endian 16-bit grayscale samples.
type Gray16 struct {

	// Pix holds the image's pixels as little-endian uint16 values. The
	// pixel at (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*2].
	Pix []uint8

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int

	// Rect is the image's bounds.
	Rect image.Rectangle
}

// ColorModel .
func (p *Gray16) ColorModel() color.Model { return color.Gray16Model }

// Bounds .
func (p *Gray16) Bounds() image.Rectangle { return p.Rect }

// At .
func (p *Gray16) At(x, y int) color.Color {
	return color.Gray16{Y: p.Uint16At(x, y)}
}

// Uint16At returns the sample value at (x, y).
func (p *Gray16) Uint16At(x, y int) uint16 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return 0
	}

	i := p.PixOffset(x, y)

	return uint16(p.Pix[i]) | uint16(p.Pix[i+1])<<8
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *Gray16) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// DecodeGray16 copies a raw gray16le buffer into a new image.
// The image does not alias buf.
func DecodeGray16(buf []byte, width int, height int) *Gray16 {
	img := NewGray16(image.Rect(0, 0, width, height))
	copy(img.Pix, buf)
	return img
}

// pixelBufferLength returns the length of the []uint8 typed Pix slice field
// for the NewXxx functions. Conceptually, this is just (bpp * width * height),
// but this function panics if at least one of those is negative or if the
// computation would overflow the int type.
func pixelBufferLength(bytesPerPixel int, r image.Rectangle) int {
	totalLength := mul3NonNeg(bytesPerPixel, r.Dx(), r.Dy())
	if totalLength < 0 {
		panic("frame: new image Rectangle has huge or negative dimensions")
	}
	return totalLength
}

// mul3NonNeg returns (x * y * z), unless at least one argument is negative or
// if the computation overflows the int type, in which case it returns -1.
func mul3NonNeg(x int, y int, z int) int {
	if (x < 0) || (y < 0) || (z < 0) {
		return -1
	}
	hi, lo := bits.Mul64(uint64(x), uint64(y))
	if hi != 0 {
		return -1
	}
	hi, lo = bits.Mul64(lo, uint64(z))
	if hi != 0 {
		return -1
	}
	a := int(lo)
	if (a < 0) || (uint64(a) != lo) {
		return -1
	}
	return a
}
