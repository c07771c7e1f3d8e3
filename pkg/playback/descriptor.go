// SPDX-License-Identifier: GPL-2.0-or-later

package playback

import (
	"context"
	"errors"
	"fmt"

	"kinectplay/pkg/ffmpeg"
)

// ChannelKind identifies one of the recording's sub-streams.
type ChannelKind uint8

// The recorder writes the sub-streams in this fixed order.
const (
	Color ChannelKind = iota
	Depth
	Infrared
)

// String .
func (k ChannelKind) String() string {
	switch k {
	case Color:
		return "color"
	case Depth:
		return "depth"
	case Infrared:
		return "ir"
	}
	return "unknown"
}

// BytesPerSample bytes per pixel in the raw stream.
func (k ChannelKind) BytesPerSample() int {
	if k == Color {
		return 3
	}
	return 2
}

// PixelFormat ffmpeg pixel format of the raw stream.
func (k ChannelKind) PixelFormat() string {
	if k == Color {
		return "bgr24"
	}
	return "gray16le"
}

// StreamDescriptor per-channel geometry. Immutable once resolved.
type StreamDescriptor struct {
	Kind   ChannelKind
	Width  int
	Height int
}

// BytesPerFrame size of one raw frame.
func (d StreamDescriptor) BytesPerFrame() int {
	return d.Width * d.Height * d.Kind.BytesPerSample()
}

// StreamLayout resolved container geometry.
type StreamLayout struct {
	Color    StreamDescriptor
	Depth    StreamDescriptor
	Infrared StreamDescriptor

	FrameRate float64
}

// Descriptor returns the descriptor for a channel.
func (l *StreamLayout) Descriptor(k ChannelKind) StreamDescriptor {
	switch k {
	case Depth:
		return l.Depth
	case Infrared:
		return l.Infrared
	}
	return l.Color
}

// Resolve phase errors.
var (
	ErrUnsupportedContainer = errors.New("container must have at least 3 streams")
	ErrAmbiguousFrameRate   = errors.New("could not parse frame rate")
)

// ResolveStreams inspects the container and returns per-channel geometry
// and the nominal frame rate. Stream order is assumed fixed by the
// recorder: 0 color, 1 depth, 2 infrared.
func ResolveStreams(ctx context.Context, probe ffmpeg.ProbeFunc, path string) (*StreamLayout, error) {
	output, err := probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe container: %w", err)
	}

	if len(output.Streams) < 3 {
		return nil, fmt.Errorf("%w: %v: found %v", ErrUnsupportedContainer, path, len(output.Streams))
	}

	rate, err := ffmpeg.ParseRate(output.Streams[0].RFrameRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAmbiguousFrameRate, err)
	}

	return &StreamLayout{
		Color: StreamDescriptor{
			Kind:   Color,
			Width:  output.Streams[0].Width,
			Height: output.Streams[0].Height,
		},
		Depth: StreamDescriptor{
			Kind:   Depth,
			Width:  output.Streams[1].Width,
			Height: output.Streams[1].Height,
		},
		Infrared: StreamDescriptor{
			Kind:   Infrared,
			Width:  output.Streams[2].Width,
			Height: output.Streams[2].Height,
		},
		FrameRate: rate,
	}, nil
}
