// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockTarget(t *testing.T) {
	start := time.Unix(1000, 0)

	c := newClock(30)
	c.now = func() time.Time { return start }
	c.markStart()

	require.Equal(t, start, c.target(0))
	require.Equal(t, start.Add(500*time.Millisecond), c.target(15))
	require.Equal(t, start.Add(time.Second), c.target(30))
	require.Equal(t, start.Add(10*time.Second), c.target(300))

	t.Run("fractionalRate", func(t *testing.T) {
		c := newClock(30000.0 / 1001.0)
		c.now = func() time.Time { return start }
		c.markStart()

		require.Equal(t, start, c.target(0))
		require.InDelta(t, 1001*time.Millisecond, c.target(30).Sub(start), float64(time.Microsecond))
	})
}
