// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"kinectplay/pkg/ffmpeg"
)

// ErrCorruptStream a decode pipe delivered a short frame.
var ErrCorruptStream = errors.New("corrupt stream")

// framePipe is one channel's decode pipeline.
type framePipe interface {
	// readFrame fills buf with exactly one raw frame.
	// Returns true on a clean end of stream.
	readFrame(buf []byte) (bool, error)

	// stop terminates the decode process. Idempotent.
	stop()
}

// pipe wraps an ffmpeg process demuxing one sub-stream and emitting
// raw frames on stdout with no framing. Frame boundaries exist only
// as multiples of the descriptor's BytesPerFrame.
type pipe struct {
	desc   StreamDescriptor
	proc   ffmpeg.Process
	stdout io.ReadCloser

	stopOnce sync.Once
}

func newPipe(
	newProcess ffmpeg.NewProcessFunc,
	ffmpegBin string,
	videoPath string,
	index int,
	desc StreamDescriptor,
	logf ffmpeg.LogFunc,
) (*pipe, error) {
	args := []string{
		"-i", videoPath,
		"-map", fmt.Sprintf("0:%d", index),
		"-f", "image2pipe",
		"-pix_fmt", desc.Kind.PixelFormat(),
		"-vcodec", "rawvideo",
		"-",
	}
	cmd := exec.Command(ffmpegBin, args...)

	proc := newProcess(cmd).
		Timeout(3 * time.Second).
		StderrLogger(logf)

	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("start %v decoder: %w", desc.Kind, err)
	}

	p := &pipe{
		desc:   desc,
		proc:   proc,
		stdout: stdout,
	}

	// Reap the process on exit so stop() can distinguish
	// exited from hung.
	go p.proc.Wait() //nolint:errcheck

	return p, nil
}

// readFrame performs a blocking read of exactly BytesPerFrame bytes.
// A zero-length read is a clean end of stream, a short read means the
// stream is corrupt.
func (p *pipe) readFrame(buf []byte) (bool, error) {
	_, err := io.ReadFull(p.stdout, buf)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF):
		return true, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		return false, fmt.Errorf("%w: short %v frame", ErrCorruptStream, p.desc.Kind)
	default:
		return false, fmt.Errorf("read %v frame: %w", p.desc.Kind, err)
	}
}

// stop closes the output handle and terminates the decode process,
// unblocking any pending read. Safe to call multiple times.
func (p *pipe) stop() {
	p.stopOnce.Do(func() {
		p.stdout.Close()
		p.proc.Stop()
	})
}
