// SPDX-License-Identifier: GPL-2.0-or-later

package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Stream container sub-stream metadata.
type Stream struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

// ProbeOutput parsed ffprobe output.
type ProbeOutput struct {
	Streams []Stream `json:"streams"`
}

// ProbeFunc is used for mocking.
type ProbeFunc func(context.Context, string) (*ProbeOutput, error)

// FFprobe stores ffprobe binary location.
type FFprobe struct {
	command func(ctx context.Context, args ...string) *exec.Cmd
}

// NewFFprobe returns FFprobe.
func NewFFprobe(bin string) *FFprobe {
	command := func(ctx context.Context, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, bin, args...)
	}
	return &FFprobe{command: command}
}

// Probe queries container metadata without decoding payload.
func (f *FFprobe) Probe(ctx context.Context, path string) (*ProbeOutput, error) {
	cmd := f.command(ctx,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %w", stderr.String(), err)
	}

	var output ProbeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, fmt.Errorf("unmarshal probe output: %w", err)
	}

	return &output, nil
}

// ErrInvalidRate rate is not a valid rational.
var ErrInvalidRate = errors.New("invalid frame rate")

// ParseRate parses a rational frame rate. "30000/1001" to 29.97.
func ParseRate(rate string) (float64, error) {
	parts := strings.Split(rate, "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, rate)
	}

	numerator, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: numerator: %q", ErrInvalidRate, rate)
	}
	denominator, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: denominator: %q", ErrInvalidRate, rate)
	}
	if numerator <= 0 || denominator <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRate, rate)
	}

	return float64(numerator) / float64(denominator), nil
}
