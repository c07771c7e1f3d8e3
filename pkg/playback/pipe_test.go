// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import (
	"testing"

	"kinectplay/pkg/ffmpeg/ffmock"

	"github.com/stretchr/testify/require"
)

func newTestPipe(t *testing.T, c ffmock.MockProcessConfig) *pipe {
	desc := StreamDescriptor{Kind: Depth, Width: 2, Height: 1}
	p, err := newPipe(
		ffmock.NewProcessMocker(c),
		"ffmpeg", "a.mkv", 1, desc,
		func(string) {},
	)
	require.NoError(t, err)
	return p
}

func TestPipe(t *testing.T) {
	t.Run("readFrames", func(t *testing.T) {
		p := newTestPipe(t, ffmock.MockProcessConfig{
			Stdout: []byte{1, 2, 3, 4, 5, 6, 7, 8},
		})

		buf := make([]byte, 4)

		eos, err := p.readFrame(buf)
		require.NoError(t, err)
		require.False(t, eos)
		require.Equal(t, []byte{1, 2, 3, 4}, buf)

		eos, err = p.readFrame(buf)
		require.NoError(t, err)
		require.False(t, eos)
		require.Equal(t, []byte{5, 6, 7, 8}, buf)

		eos, err = p.readFrame(buf)
		require.NoError(t, err)
		require.True(t, eos)
	})
	t.Run("shortRead", func(t *testing.T) {
		p := newTestPipe(t, ffmock.MockProcessConfig{
			Stdout: []byte{1, 2, 3},
		})

		buf := make([]byte, 4)
		_, err := p.readFrame(buf)
		require.ErrorIs(t, err, ErrCorruptStream)
	})
	t.Run("stopIdempotent", func(t *testing.T) {
		stops := 0
		p := newTestPipe(t, ffmock.MockProcessConfig{
			OnStop: func() { stops++ },
		})

		p.stop()
		p.stop()
		require.Equal(t, 1, stops)
	})
	t.Run("startErr", func(t *testing.T) {
		desc := StreamDescriptor{Kind: Color, Width: 2, Height: 1}
		_, err := newPipe(ffmock.NewProcessErr, "ffmpeg", "a.mkv", 0, desc, func(string) {})
		require.Error(t, err)
	})
}
