// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import "time"

// clock computes target delivery times for frame indices relative to
// the session start. The now and sleep functions are swappable so the
// scheduler can be tested against a simulated wall clock.
type clock struct {
	start time.Time
	rate  float64

	now   func() time.Time
	sleep func(time.Duration)
}

func newClock(rate float64) *clock {
	return &clock{
		rate:  rate,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

func (c *clock) markStart() {
	c.start = c.now()
}

// target returns the wall-clock time at which frame i is due.
func (c *clock) target(i int) time.Time {
	offset := time.Duration(float64(i) / c.rate * float64(time.Second))
	return c.start.Add(offset)
}
