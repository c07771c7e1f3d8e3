// SPDX-License-Identifier: GPL-2.0-or-later

package frame

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func newGray16(values []uint16, width int, height int) *Gray16 {
	img := NewGray16(image.Rect(0, 0, width, height))
	for i, v := range values {
		img.Pix[i*2] = uint8(v)
		img.Pix[i*2+1] = uint8(v >> 8)
	}
	return img
}

func TestNewWindow(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		w, err := NewWindow(100, 356)
		require.NoError(t, err)
		require.Equal(t, Window{Lower: 100, Upper: 356}, w)
	})
	t.Run("full", func(t *testing.T) {
		_, err := NewWindow(0, 65535)
		require.NoError(t, err)
	})

	cases := map[string]struct{ lower, upper int }{
		"equal":      {100, 100},
		"inverted":   {500, 100},
		"upperHuge":  {70000, 1},
		"lowerNeg":   {-1, 500},
		"upperAbove": {0, 70000},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewWindow(tc.lower, tc.upper)
			require.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}

func TestNormalize(t *testing.T) {
	w, err := NewWindow(100, 356)
	require.NoError(t, err)

	t.Run("endpoints", func(t *testing.T) {
		img := newGray16([]uint16{0, 99, 100, 355, 356, 65535}, 6, 1)
		out := Normalize(img, w)

		require.Equal(t, uint8(0), out.Pix[0])
		require.Equal(t, uint8(0), out.Pix[1])
		require.Equal(t, uint8(0), out.Pix[2])
		require.Equal(t, uint8(255), out.Pix[3])
		require.Equal(t, uint8(255), out.Pix[4])
		require.Equal(t, uint8(255), out.Pix[5])
	})
	t.Run("monotonic", func(t *testing.T) {
		values := make([]uint16, 256)
		for i := range values {
			values[i] = uint16(100 + i)
		}
		img := newGray16(values, 256, 1)
		out := Normalize(img, w)

		require.Equal(t, uint8(0), out.Pix[0])
		require.Equal(t, uint8(255), out.Pix[255])
		for i := 1; i < 256; i++ {
			require.GreaterOrEqual(t, out.Pix[i], out.Pix[i-1])
		}
	})
	t.Run("pure", func(t *testing.T) {
		img := newGray16([]uint16{200, 300}, 2, 1)
		before := append([]uint8{}, img.Pix...)

		Normalize(img, w)
		require.Equal(t, before, img.Pix)
	})
	t.Run("repeatable", func(t *testing.T) {
		// Identity-like clamp window.
		clamp, err := NewWindow(0, 255)
		require.NoError(t, err)

		img := newGray16([]uint16{0, 100, 254, 255, 1000}, 5, 1)
		first := Normalize(img, clamp)
		second := Normalize(img, clamp)
		require.Equal(t, first.Pix, second.Pix)
	})
	t.Run("singleStep", func(t *testing.T) {
		narrow, err := NewWindow(10, 11)
		require.NoError(t, err)

		img := newGray16([]uint16{9, 10, 11}, 3, 1)
		out := Normalize(img, narrow)
		require.Equal(t, []uint8{0, 0, 255}, out.Pix)
	})
}

func TestExtrema(t *testing.T) {
	t.Run("observe", func(t *testing.T) {
		e := NewExtrema()
		require.Equal(t, FullWindow, e.Window())

		changed := e.Observe(newGray16([]uint16{500, 10, 300}, 3, 1))
		require.True(t, changed)
		require.Equal(t, Window{Lower: 10, Upper: 500}, e.Window())

		changed = e.Observe(newGray16([]uint16{100, 200}, 2, 1))
		require.False(t, changed)

		changed = e.Observe(newGray16([]uint16{5, 900}, 2, 1))
		require.True(t, changed)
		require.Equal(t, Window{Lower: 5, Upper: 900}, e.Window())
	})
	t.Run("flat", func(t *testing.T) {
		e := NewExtrema()
		e.Observe(newGray16([]uint16{7, 7}, 2, 1))
		require.Equal(t, FullWindow, e.Window())
	})
	t.Run("seed", func(t *testing.T) {
		e := NewExtrema()
		e.Seed(100, 200)
		require.Equal(t, Window{Lower: 100, Upper: 200}, e.Window())

		e.Observe(newGray16([]uint16{50}, 1, 1))
		require.Equal(t, Window{Lower: 50, Upper: 200}, e.Window())
	})
	t.Run("seedInverted", func(t *testing.T) {
		e := NewExtrema()
		e.Seed(200, 100)
		require.Equal(t, FullWindow, e.Window())
	})
}
