// SPDX-License-Identifier: GPL-2.0-or-later

package frame

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBGR24(t *testing.T) {
	buf := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	img := DecodeBGR24(buf, 2, 2)

	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	require.Equal(t, BGR{B: 1, G: 2, R: 3}, img.BGR24At(0, 0))
	require.Equal(t, BGR{B: 10, G: 11, R: 12}, img.BGR24At(1, 1))
	require.Equal(t, BGR{}, img.BGR24At(2, 0))

	t.Run("noAlias", func(t *testing.T) {
		buf[0] = 99
		require.Equal(t, uint8(1), img.Pix[0])
	})
	t.Run("rgba", func(t *testing.T) {
		r, g, b, a := img.At(0, 0).RGBA()
		require.Equal(t, uint32(3|3<<8), r)
		require.Equal(t, uint32(2|2<<8), g)
		require.Equal(t, uint32(1|1<<8), b)
		require.Equal(t, uint32(0xffff), a)
	})
	t.Run("model", func(t *testing.T) {
		c := BGR24Model.Convert(color.RGBA{R: 3, G: 2, B: 1, A: 255})
		require.Equal(t, BGR{B: 1, G: 2, R: 3}, c)
	})
}

func TestGray16(t *testing.T) {
	// Little-endian samples 0x0102 and 0xffff.
	buf := []byte{0x02, 0x01, 0xff, 0xff}
	img := DecodeGray16(buf, 2, 1)

	require.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	require.Equal(t, uint16(0x0102), img.Uint16At(0, 0))
	require.Equal(t, uint16(0xffff), img.Uint16At(1, 0))
	require.Equal(t, uint16(0), img.Uint16At(0, 1))
	require.Equal(t, color.Gray16{Y: 0x0102}, img.At(0, 0))

	t.Run("noAlias", func(t *testing.T) {
		buf[0] = 0
		require.Equal(t, uint16(0x0102), img.Uint16At(0, 0))
	})
}
