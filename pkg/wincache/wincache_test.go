// SPDX-License-Identifier: GPL-2.0-or-later

package wincache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	c, err := Open(filepath.Join(t.TempDir(), "windows.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		c := newTestCache(t)

		entry := Entry{
			DepthMin: 500,
			DepthMax: 4000,
			IRMin:    10,
			IRMax:    1200,
		}
		require.NoError(t, c.Set("/recordings/a.mkv", entry))

		got, found, err := c.Get("/recordings/a.mkv")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, entry, got)
	})
	t.Run("missing", func(t *testing.T) {
		c := newTestCache(t)

		_, found, err := c.Get("/recordings/missing.mkv")
		require.NoError(t, err)
		require.False(t, found)
	})
	t.Run("overwrite", func(t *testing.T) {
		c := newTestCache(t)

		require.NoError(t, c.Set("a.mkv", Entry{DepthMin: 1}))
		require.NoError(t, c.Set("a.mkv", Entry{DepthMin: 2}))

		got, found, err := c.Get("a.mkv")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint16(2), got.DepthMin)
	})
	t.Run("badPath", func(t *testing.T) {
		_, err := Open("/dev/null/windows.db")
		require.Error(t, err)
	})
}
