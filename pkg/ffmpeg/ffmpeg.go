// SPDX-License-Identifier: GPL-2.0-or-later

package ffmpeg

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// LogFunc used to log stdout and stderr.
type LogFunc func(msg string)

// Process interface only used for testing.
type Process interface {
	// Timeout sets the duration to wait after interrupt before killing.
	Timeout(time.Duration) Process

	// StderrLogger sets the logger for the process stderr.
	StderrLogger(LogFunc) Process

	// StdoutPipe returns a pipe connected to the process stdout.
	// Must be called before Start.
	StdoutPipe() (io.ReadCloser, error)

	// StdinPipe returns a pipe connected to the process stdin.
	// Must be called before Start.
	StdinPipe() (io.WriteCloser, error)

	// Start starts the process without waiting for it.
	Start() error

	// Wait waits for the process to exit.
	Wait() error

	// Stop stops the process, first by interrupt and after
	// the timeout by force. Idempotent.
	Stop()
}

// process manages subprocesses.
type process struct {
	timeout time.Duration
	cmd     *exec.Cmd

	stderrLogger LogFunc

	done     chan struct{}
	stopOnce sync.Once
}

// NewProcessFunc is used for mocking.
type NewProcessFunc func(*exec.Cmd) Process

// NewProcess return process.
func NewProcess(cmd *exec.Cmd) Process {
	return &process{
		timeout: 1000 * time.Millisecond,
		cmd:     cmd,
		done:    make(chan struct{}),
	}
}

func (p *process) Timeout(timeout time.Duration) Process {
	p.timeout = timeout
	return p
}

func (p *process) StderrLogger(l LogFunc) Process {
	p.stderrLogger = l
	return p
}

func (p *process) StdoutPipe() (io.ReadCloser, error) {
	return p.cmd.StdoutPipe()
}

func (p *process) StdinPipe() (io.WriteCloser, error) {
	return p.cmd.StdinPipe()
}

func (p *process) attachLogger(l LogFunc, stdPipe func() (io.ReadCloser, error)) error {
	pipe, err := stdPipe()
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(pipe)
	go func() {
		for scanner.Scan() {
			l(scanner.Text())
		}
	}()
	return nil
}

func (p *process) Start() error {
	if p.stderrLogger != nil {
		if err := p.attachLogger(p.stderrLogger, p.cmd.StderrPipe); err != nil {
			return err
		}
	}
	return p.cmd.Start()
}

func (p *process) Wait() error {
	err := p.cmd.Wait()
	close(p.done)

	// FFmpeg seems to return 255 on normal exit.
	if err != nil && err.Error() == "exit status 255" {
		return nil
	}
	return err
}

func (p *process) Stop() {
	p.stopOnce.Do(func() {
		p.cmd.Process.Signal(os.Interrupt) //nolint:errcheck

		select {
		case <-p.done:
		case <-time.After(p.timeout):
			p.cmd.Process.Signal(os.Kill) //nolint:errcheck
		}
	})
}

// ParseArgs slices arguments.
func ParseArgs(args string) []string {
	return strings.Split(strings.TrimSpace(args), " ")
}
