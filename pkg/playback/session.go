// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import (
	"errors"
	"sync"

	"kinectplay/pkg/ffmpeg"
	"kinectplay/pkg/frame"
	"kinectplay/pkg/log"

	"github.com/google/uuid"
)

// Config playback session configuration. Immutable for the session
// lifetime.
type Config struct {
	Color bool
	Depth bool
	IR    bool

	// RealtimeWait paces delivery against the wall clock, skipping
	// stale frames to catch up. When false every frame is delivered
	// as fast as the pipes produce them.
	RealtimeWait bool
}

func (c Config) enabled(k ChannelKind) bool {
	switch k {
	case Color:
		return c.Color
	case Depth:
		return c.Depth
	case Infrared:
		return c.IR
	}
	return false
}

// State session lifecycle state.
type State uint8

// Lifecycle: NotStarted -> Running -> Stopped.
const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// FrameTuple one synchronized frame per enabled channel. Disabled
// channels are nil. The all-nil tuple is the end-of-sequence sentinel.
type FrameTuple struct {
	Color *frame.BGR24
	Depth *frame.Gray16
	IR    *frame.Gray16
}

// Empty reports whether all slots are absent.
func (t FrameTuple) Empty() bool {
	return t.Color == nil && t.Depth == nil && t.IR == nil
}

// LogFunc session logging.
type LogFunc func(level log.Level, format string, a ...interface{})

// ErrNotStarted Next was called before Start.
var ErrNotStarted = errors.New("session not started")

// ErrAlreadyStarted Start was called twice.
var ErrAlreadyStarted = errors.New("session already started")

type newPipeFunc func(s *Session, k ChannelKind) (framePipe, error)

// Session owns one decode pipe per enabled channel and produces a
// forward-only sequence of synchronized frame tuples. Not restartable,
// a new session is required to replay.
type Session struct {
	id        string
	videoPath string
	layout    *StreamLayout
	config    Config

	ffmpegBin  string
	logf       LogFunc
	newProcess ffmpeg.NewProcessFunc
	newPipe    newPipeFunc

	clock *clock
	frame int
	done  bool

	pipes [3]framePipe
	bufs  [3][]byte

	// Guards state. Stop may be called from outside the playback loop.
	mu    sync.Mutex
	state State
}

// NewSession returns a not-started session.
func NewSession(
	videoPath string,
	layout *StreamLayout,
	config Config,
	ffmpegBin string,
	logf LogFunc,
) *Session {
	return &Session{
		id:        uuid.NewString()[:8],
		videoPath: videoPath,
		layout:    layout,
		config:    config,

		ffmpegBin:  ffmpegBin,
		logf:       logf,
		newProcess: ffmpeg.NewProcess,
		newPipe:    newSessionPipe,

		clock: newClock(layout.FrameRate),
	}
}

// ID session id used in log entries.
func (s *Session) ID() string {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FrameIndex returns the next frame index.
func (s *Session) FrameIndex() int {
	return s.frame
}

// Done reports whether the frame sequence has terminated.
func (s *Session) Done() bool {
	return s.done
}

func newSessionPipe(s *Session, k ChannelKind) (framePipe, error) {
	logf := func(msg string) {
		s.logf(log.LevelError, "%v decoder: %v", k, msg)
	}
	return newPipe(s.newProcess, s.ffmpegBin, s.videoPath, int(k), s.layout.Descriptor(k), logf)
}

// Start spawns the decode pipes and records the start timestamp.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	for _, k := range []ChannelKind{Color, Depth, Infrared} {
		if !s.config.enabled(k) {
			continue
		}

		pipe, err := s.newPipe(s, k)
		if err != nil {
			for _, p := range s.pipes {
				if p != nil {
					p.stop()
				}
			}
			s.state = StateStopped
			s.done = true
			return err
		}
		s.pipes[k] = pipe
		s.bufs[k] = make([]byte, s.layout.Descriptor(k).BytesPerFrame())
	}

	s.clock.markStart()
	s.state = StateRunning

	s.logf(log.LevelInfo, "started: %v", s.videoPath)
	return nil
}

// Stop terminates all decode pipes and unblocks any pending read.
// No-op while NotStarted, idempotent, callable from outside the
// playback loop.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}

	for _, p := range s.pipes {
		if p != nil {
			p.stop()
		}
	}
	s.state = StateStopped

	s.logf(log.LevelInfo, "stopped")
}

// Next returns the next synchronized frame tuple.
//
// On a clean end of stream it returns the all-nil sentinel tuple once
// and the session transitions to Stopped. A short read from any pipe
// stops the session and returns ErrCorruptStream. In realtime mode
// delivery is paced against the wall clock: early ticks sleep until
// the frame is due, late ticks read and discard stale frames until
// caught up. The delivered frame index never decreases.
func (s *Session) Next() (FrameTuple, error) {
	if s.done {
		return FrameTuple{}, nil
	}

	switch s.State() {
	case StateNotStarted:
		return FrameTuple{}, ErrNotStarted
	case StateStopped:
		// Stopped externally, terminate the sequence.
		s.done = true
		return FrameTuple{}, nil
	}

	if !s.config.RealtimeWait {
		return s.readAdvance()
	}

	now := s.clock.now()
	target := s.clock.target(s.frame)

	if now.Before(target) {
		s.clock.sleep(target.Sub(now))
		return s.readAdvance()
	}

	if now.After(target) {
		// Catch up by discarding stale frames. The clock is
		// re-read only after each discarded read, so a slow read
		// can deepen the skip. This matches the recorder's
		// original player.
		for {
			eos, err := s.readRaw()
			if eos || err != nil {
				return s.finish(err)
			}
			s.frame++

			skipped := s.frame - 1
			if !s.clock.now().After(s.clock.target(s.frame)) {
				// The frame read last is the most recent
				// one whose display time has passed,
				// deliver it instead of discarding.
				return s.decode(), nil
			}
			s.logf(log.LevelDebug, "skipped frame %v", skipped)
		}
	}

	return s.readAdvance()
}

func (s *Session) readAdvance() (FrameTuple, error) {
	eos, err := s.readRaw()
	if eos || err != nil {
		return s.finish(err)
	}
	s.frame++
	return s.decode(), nil
}

// readRaw reads one fixed-size raw frame from every enabled pipe into
// the session buffers.
func (s *Session) readRaw() (bool, error) {
	for _, k := range []ChannelKind{Color, Depth, Infrared} {
		if s.pipes[k] == nil {
			continue
		}
		eos, err := s.pipes[k].readFrame(s.bufs[k])
		if err != nil {
			return false, err
		}
		if eos {
			return true, nil
		}
	}
	return false, nil
}

// finish terminates the sequence. A nil error or an externally
// requested stop yields the clean sentinel.
func (s *Session) finish(err error) (FrameTuple, error) {
	stoppedExternally := s.State() == StateStopped

	s.Stop()
	s.done = true

	if err != nil && !stoppedExternally {
		s.logf(log.LevelError, "%v", err)
		return FrameTuple{}, err
	}
	return FrameTuple{}, nil
}

// decode converts the raw session buffers into independent images.
func (s *Session) decode() FrameTuple {
	var t FrameTuple
	if s.config.Color {
		d := s.layout.Color
		t.Color = frame.DecodeBGR24(s.bufs[Color], d.Width, d.Height)
	}
	if s.config.Depth {
		d := s.layout.Depth
		t.Depth = frame.DecodeGray16(s.bufs[Depth], d.Width, d.Height)
	}
	if s.config.IR {
		d := s.layout.Infrared
		t.IR = frame.DecodeGray16(s.bufs[Infrared], d.Width, d.Height)
	}
	return t
}
