// SPDX-License-Identifier: GPL-2.0-or-later

package ffmpeg

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeProbe(env ...string) *FFprobe {
	return &FFprobe{
		command: func(ctx context.Context, args ...string) *exec.Cmd {
			return fakeExecCommand(env...)
		},
	}
}

func TestProbe(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		json := `{
			"streams": [
				{"width": 1920, "height": 1080, "r_frame_rate": "30/1"},
				{"width": 640, "height": 576, "r_frame_rate": "30/1"},
				{"width": 640, "height": 576, "r_frame_rate": "30/1"}
			]
		}`

		output, err := fakeProbe("PROBE_JSON=" + json).Probe(context.Background(), "a.mkv")
		require.NoError(t, err)
		require.Equal(t, &ProbeOutput{
			Streams: []Stream{
				{Width: 1920, Height: 1080, RFrameRate: "30/1"},
				{Width: 640, Height: 576, RFrameRate: "30/1"},
				{Width: 640, Height: 576, RFrameRate: "30/1"},
			},
		}, output)
	})
	t.Run("badJSON", func(t *testing.T) {
		_, err := fakeProbe("PROBE_JSON={").Probe(context.Background(), "a.mkv")
		require.Error(t, err)
	})
	t.Run("execErr", func(t *testing.T) {
		f := NewFFprobe("/dev/null/nonexistent")
		_, err := f.Probe(context.Background(), "a.mkv")
		require.Error(t, err)
	})
}
