// SPDX-License-Identifier: GPL-2.0-or-later

package frame

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidWindow window bounds are invalid.
var ErrInvalidWindow = errors.New("invalid window bounds")

// Window is a linear mapping range from 16-bit samples onto [0, 255].
// Values below Lower map to 0 and values at or above Upper map to 255.
type Window struct {
	Lower int
	Upper int
}

// NewWindow validates and returns a window.
func NewWindow(lower int, upper int) (Window, error) {
	if lower < 0 || lower > 65535 {
		return Window{}, fmt.Errorf("%w: lower %v outside [0, 65535]", ErrInvalidWindow, lower)
	}
	if upper < 0 || upper > 65535 {
		return Window{}, fmt.Errorf("%w: upper %v outside [0, 65535]", ErrInvalidWindow, upper)
	}
	if lower >= upper {
		return Window{}, fmt.Errorf("%w: lower %v >= upper %v", ErrInvalidWindow, lower, upper)
	}
	return Window{Lower: lower, Upper: upper}, nil
}

// FullWindow covers the entire 16-bit range.
var FullWindow = Window{Lower: 0, Upper: 65535}

// Normalize maps a 16-bit image through a lookup table to an 8-bit image.
// The window is mapped onto [0, 255] with evenly spaced integer steps.
// The input image is not modified.
func Normalize(img *Gray16, w Window) *image.Gray {
	lut := makeLUT(w)

	out := image.NewGray(img.Rect)
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	for y := 0; y < height; y++ {
		i := y * img.Stride
		o := y * out.Stride
		for x := 0; x < width; x++ {
			v := uint16(img.Pix[i]) | uint16(img.Pix[i+1])<<8
			out.Pix[o] = lut[v]
			i += 2
			o++
		}
	}
	return out
}

func makeLUT(w Window) [65536]uint8 {
	var lut [65536]uint8

	steps := w.Upper - w.Lower
	for i := 0; i < steps; i++ {
		if steps > 1 {
			lut[w.Lower+i] = uint8(255 * i / (steps - 1))
		}
	}
	for v := w.Upper; v < 65536; v++ {
		lut[v] = 255
	}
	return lut
}

// Extrema accumulates the running minimum and maximum sample values
// observed across frames. Used to derive a window when the caller did
// not supply explicit bounds. Early frames may clip until the true
// extrema have been observed.
type Extrema struct {
	Min uint16
	Max uint16

	seen bool
}

// NewExtrema returns an empty accumulator.
func NewExtrema() *Extrema {
	return &Extrema{Min: 65535, Max: 0}
}

// Observe updates the extrema from an image.
// Returns true if either bound changed.
func (e *Extrema) Observe(img *Gray16) bool {
	changed := false
	for i := 0; i+1 < len(img.Pix); i += 2 {
		v := uint16(img.Pix[i]) | uint16(img.Pix[i+1])<<8
		if !e.seen || v < e.Min {
			e.Min = v
			changed = true
		}
		if !e.seen || v > e.Max {
			e.Max = v
			changed = true
		}
		e.seen = true
	}
	return changed
}

// Seed initializes the extrema from previously discovered bounds.
func (e *Extrema) Seed(min uint16, max uint16) {
	if min > max {
		return
	}
	e.Min = min
	e.Max = max
	e.seen = true
}

// Window returns the window covering the observed range, or the full
// 16-bit range if too few distinct values have been observed.
func (e *Extrema) Window() Window {
	if !e.seen || e.Min >= e.Max {
		return FullWindow
	}
	return Window{Lower: int(e.Min), Upper: int(e.Max)}
}
