// SPDX-License-Identifier: GPL-2.0-or-later

package encoder

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"kinectplay/pkg/ffmpeg"
	"kinectplay/pkg/frame"
)

// Sink receives composited frames.
type Sink interface {
	WriteFrame(img *frame.BGR24) error
}

// Config encoder configuration.
type Config struct {
	FFmpegBin string
	Path      string // Output file.
	Width     int
	Height    int
	FrameRate float64
	Preset    string // libx264 encoding preset.
}

// Writer feeds raw bgr24 frames to an external encoder process that
// writes a compressed video file. Frames must match the configured
// resolution exactly.
type Writer struct {
	config Config

	proc  ffmpeg.Process
	stdin io.WriteCloser

	closeOnce sync.Once
	closeErr  error
}

// NewWriter spawns the encoder process.
func NewWriter(config Config, newProcess ffmpeg.NewProcessFunc, logf ffmpeg.LogFunc) (*Writer, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-vcodec", "rawvideo",
		"-s", fmt.Sprintf("%dx%d", config.Width, config.Height),
		"-pix_fmt", "bgr24",
		"-r", strconv.FormatFloat(config.FrameRate, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-vcodec", "libx264",
		"-preset", config.Preset,
		config.Path,
	}
	cmd := exec.Command(config.FFmpegBin, args...)

	proc := newProcess(cmd).
		Timeout(10 * time.Second).
		StderrLogger(logf)

	stdin, err := proc.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}

	return &Writer{
		config: config,
		proc:   proc,
		stdin:  stdin,
	}, nil
}

// WriteFrame writes exactly width*height*3 bytes to the encoder.
func (w *Writer) WriteFrame(img *frame.BGR24) error {
	if img.Rect.Dx() != w.config.Width || img.Rect.Dy() != w.config.Height {
		return fmt.Errorf("frame size %vx%v does not match encoder %vx%v",
			img.Rect.Dx(), img.Rect.Dy(), w.config.Width, w.config.Height)
	}

	if _, err := w.stdin.Write(img.Pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close closes the encoder input and waits for the process to flush
// the output file. Idempotent.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		if err := w.stdin.Close(); err != nil {
			w.closeErr = fmt.Errorf("close encoder input: %w", err)
			w.proc.Stop()
			w.proc.Wait() //nolint:errcheck
			return
		}
		w.closeErr = w.proc.Wait()
	})
	return w.closeErr
}
