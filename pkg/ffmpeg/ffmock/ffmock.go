// SPDX-License-Identifier: GPL-2.0-or-later

package ffmock

import (
	"bytes"
	"errors"
	"io"
	"kinectplay/pkg/ffmpeg"
	"os/exec"
	"time"
)

// MockProcessConfig ProcessMocker config.
type MockProcessConfig struct {
	StartErr bool
	WaitErr  bool
	Stdout   []byte
	OnStop   func()
}

// NewProcessMocker creates process mocker from config.
func NewProcessMocker(c MockProcessConfig) ffmpeg.NewProcessFunc {
	return func(*exec.Cmd) ffmpeg.Process {
		return &mockProcess{c: c}
	}
}

type mockProcess struct {
	c MockProcessConfig
}

func (m *mockProcess) Timeout(time.Duration) ffmpeg.Process { return m }

func (m *mockProcess) StderrLogger(ffmpeg.LogFunc) ffmpeg.Process { return m }

func (m *mockProcess) StdoutPipe() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.c.Stdout)), nil
}

func (m *mockProcess) StdinPipe() (io.WriteCloser, error) {
	return nopWriteCloser{io.Discard}, nil
}

func (m *mockProcess) Start() error {
	if m.c.StartErr {
		return errors.New("mock")
	}
	return nil
}

func (m *mockProcess) Wait() error {
	if m.c.WaitErr {
		return errors.New("mock")
	}
	return nil
}

func (m *mockProcess) Stop() {
	if m.c.OnStop != nil {
		m.c.OnStop()
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewProcess returns a process that exits immediately.
var NewProcess = NewProcessMocker(MockProcessConfig{})

// NewProcessErr returns a process that fails to start.
var NewProcessErr = NewProcessMocker(MockProcessConfig{
	StartErr: true,
})
