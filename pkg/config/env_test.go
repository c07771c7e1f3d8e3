// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		env, err := NewEnv(nil)
		require.NoError(t, err)

		home, err := os.UserHomeDir()
		require.NoError(t, err)

		require.Equal(t, "/usr/bin/ffmpeg", env.FFmpegBin)
		require.Equal(t, "/usr/bin/ffprobe", env.FFprobeBin)
		require.Equal(t, filepath.Join(home, ".kinectplay"), env.StateDir)
		require.Equal(t, filepath.Join(env.StateDir, "logs.db"), env.LogDBPath)
		require.Equal(t, filepath.Join(env.StateDir, "windows.db"), env.WindowCachePath)
		require.Equal(t, "medium", env.EncodePreset)
		require.Equal(t, "error", env.LogLevel)
	})
	t.Run("override", func(t *testing.T) {
		envYAML := []byte(`
ffmpegBin: /opt/ffmpeg/ffmpeg
stateDir: /var/lib/kinectplay
encodePreset: ultrafast
logLevel: debug
`)
		env, err := NewEnv(envYAML)
		require.NoError(t, err)

		require.Equal(t, "/opt/ffmpeg/ffmpeg", env.FFmpegBin)
		require.Equal(t, "/var/lib/kinectplay", env.StateDir)
		require.Equal(t, "/var/lib/kinectplay/logs.db", env.LogDBPath)
		require.Equal(t, "ultrafast", env.EncodePreset)
		require.Equal(t, "debug", env.LogLevel)
	})
	t.Run("badYaml", func(t *testing.T) {
		_, err := NewEnv([]byte("{"))
		require.Error(t, err)
	})

	relCases := map[string]string{
		"ffmpegBin":  "ffmpegBin: ffmpeg",
		"ffprobeBin": "ffprobeBin: ffprobe",
		"stateDir":   "stateDir: state",
	}
	for name, envYAML := range relCases {
		t.Run(name+"Relative", func(t *testing.T) {
			_, err := NewEnv([]byte(envYAML))
			require.ErrorIs(t, err, ErrPathNotAbsolute)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("missingFile", func(t *testing.T) {
		env, err := LoadEnv(filepath.Join(t.TempDir(), "env.yaml"))
		require.NoError(t, err)
		require.Equal(t, "/usr/bin/ffmpeg", env.FFmpegBin)
	})
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logLevel: info"), 0o600))

		env, err := LoadEnv(path)
		require.NoError(t, err)
		require.Equal(t, "info", env.LogLevel)
	})
}

func TestPrepareEnvironment(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), "state")
	env := Env{StateDir: stateDir}

	require.NoError(t, env.PrepareEnvironment())
	require.DirExists(t, stateDir)

	// Existing directory is not an error.
	require.NoError(t, env.PrepareEnvironment())
}
