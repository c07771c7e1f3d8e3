// SPDX-License-Identifier: GPL-2.0-or-later

package encoder

import (
	"image"
	"testing"

	"kinectplay/pkg/ffmpeg/ffmock"
	"kinectplay/pkg/frame"

	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) *Writer {
	config := Config{
		FFmpegBin: "ffmpeg",
		Path:      "out.mp4",
		Width:     4,
		Height:    2,
		FrameRate: 30,
		Preset:    "medium",
	}

	w, err := NewWriter(config, ffmock.NewProcess, func(string) {})
	require.NoError(t, err)
	return w
}

func TestWriter(t *testing.T) {
	t.Run("writeFrame", func(t *testing.T) {
		w := newTestWriter(t)
		defer w.Close()

		img := frame.NewBGR24(image.Rect(0, 0, 4, 2))
		require.NoError(t, w.WriteFrame(img))
	})
	t.Run("sizeMismatch", func(t *testing.T) {
		w := newTestWriter(t)
		defer w.Close()

		img := frame.NewBGR24(image.Rect(0, 0, 4, 3))
		require.Error(t, w.WriteFrame(img))
	})
	t.Run("closeIdempotent", func(t *testing.T) {
		w := newTestWriter(t)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
	})
	t.Run("startErr", func(t *testing.T) {
		_, err := NewWriter(Config{}, ffmock.NewProcessErr, func(string) {})
		require.Error(t, err)
	})
}
