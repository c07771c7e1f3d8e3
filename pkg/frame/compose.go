// SPDX-License-Identifier: GPL-2.0-or-later

package frame

import (
	"errors"
	"image"
)

// ErrNoImagesToCompose all channel images are absent.
var ErrNoImagesToCompose = errors.New("no images to compose")

// GrayToBGR converts an 8-bit grayscale image to a 3-channel image.
func GrayToBGR(img *image.Gray) *BGR24 {
	out := NewBGR24(img.Rect)
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	for y := 0; y < height; y++ {
		i := y * img.Stride
		o := y * out.Stride
		for x := 0; x < width; x++ {
			v := img.Pix[i]
			out.Pix[o] = v
			out.Pix[o+1] = v
			out.Pix[o+2] = v
			i++
			o += 3
		}
	}
	return out
}

// Compose lays the present channel images out on one canvas.
//
// All three present: color on top horizontally centered, depth bottom
// left, infrared bottom right. Color plus one 16-bit channel: color on
// top, the other below, both centered. Depth and infrared only: side by
// side, top aligned. A single image is returned unchanged. The canvas
// is zero filled and images are placed at native resolution.
func Compose(color *BGR24, depth *BGR24, ir *BGR24) (*BGR24, error) {
	present := 0
	for _, img := range []*BGR24{color, depth, ir} {
		if img != nil {
			present++
		}
	}

	switch {
	case present == 0:
		return nil, ErrNoImagesToCompose

	case present == 1:
		if color != nil {
			return color, nil
		}
		if depth != nil {
			return depth, nil
		}
		return ir, nil

	case color != nil && depth != nil && ir != nil:
		w := maxInt(color.Rect.Dx(), depth.Rect.Dx()+ir.Rect.Dx())
		h := color.Rect.Dy() + maxInt(depth.Rect.Dy(), ir.Rect.Dy())

		canvas := NewBGR24(image.Rect(0, 0, w, h))
		blit(canvas, color, (w-color.Rect.Dx())/2, 0)
		blit(canvas, depth, 0, color.Rect.Dy())
		blit(canvas, ir, w-ir.Rect.Dx(), color.Rect.Dy())
		return canvas, nil

	case color != nil:
		other := depth
		if other == nil {
			other = ir
		}
		w := maxInt(color.Rect.Dx(), other.Rect.Dx())
		h := color.Rect.Dy() + other.Rect.Dy()

		canvas := NewBGR24(image.Rect(0, 0, w, h))
		blit(canvas, color, (w-color.Rect.Dx())/2, 0)
		blit(canvas, other, (w-other.Rect.Dx())/2, color.Rect.Dy())
		return canvas, nil

	default: // Depth and infrared.
		w := depth.Rect.Dx() + ir.Rect.Dx()
		h := maxInt(depth.Rect.Dy(), ir.Rect.Dy())

		canvas := NewBGR24(image.Rect(0, 0, w, h))
		blit(canvas, depth, 0, 0)
		blit(canvas, ir, depth.Rect.Dx(), 0)
		return canvas, nil
	}
}

// blit copies src onto dst with its top-left corner at (x, y).
func blit(dst *BGR24, src *BGR24, x int, y int) {
	rowLen := src.Stride
	for row := 0; row < src.Rect.Dy(); row++ {
		d := (y+row)*dst.Stride + x*3
		s := row * src.Stride
		copy(dst.Pix[d:d+rowLen], src.Pix[s:s+rowLen])
	}
}

func maxInt(a int, b int) int {
	if a > b {
		return a
	}
	return b
}
