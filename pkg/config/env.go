// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Env stores tool configuration.
type Env struct {
	FFmpegBin  string `yaml:"ffmpegBin"`
	FFprobeBin string `yaml:"ffprobeBin"`

	StateDir        string `yaml:"stateDir"`
	LogDBPath       string `yaml:"logDBPath"`
	WindowCachePath string `yaml:"windowCachePath"`

	EncodePreset string `yaml:"encodePreset"`
	LogLevel     string `yaml:"logLevel"`
}

// ErrPathNotAbsolute path is not absolute.
var ErrPathNotAbsolute = errors.New("path is not absolute")

// NewEnv returns environment configuration with defaults applied.
func NewEnv(envYAML []byte) (*Env, error) {
	var env Env

	if err := yaml.Unmarshal(envYAML, &env); err != nil {
		return nil, fmt.Errorf("unmarshal env.yaml: %w", err)
	}

	if env.FFmpegBin == "" {
		env.FFmpegBin = "/usr/bin/ffmpeg"
	}
	if env.FFprobeBin == "" {
		env.FFprobeBin = "/usr/bin/ffprobe"
	}
	if env.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("user home directory: %w", err)
		}
		env.StateDir = filepath.Join(home, ".kinectplay")
	}
	if env.LogDBPath == "" {
		env.LogDBPath = filepath.Join(env.StateDir, "logs.db")
	}
	if env.WindowCachePath == "" {
		env.WindowCachePath = filepath.Join(env.StateDir, "windows.db")
	}
	if env.EncodePreset == "" {
		env.EncodePreset = "medium"
	}
	if env.LogLevel == "" {
		env.LogLevel = "error"
	}

	if !filepath.IsAbs(env.FFmpegBin) {
		return nil, fmt.Errorf("ffmpegBin '%v': %w", env.FFmpegBin, ErrPathNotAbsolute)
	}
	if !filepath.IsAbs(env.FFprobeBin) {
		return nil, fmt.Errorf("ffprobeBin '%v': %w", env.FFprobeBin, ErrPathNotAbsolute)
	}
	if !filepath.IsAbs(env.StateDir) {
		return nil, fmt.Errorf("stateDir '%v': %w", env.StateDir, ErrPathNotAbsolute)
	}

	return &env, nil
}

// LoadEnv reads and parses the configuration file at path.
// A missing file is not an error, defaults are used.
func LoadEnv(path string) (*Env, error) {
	envYAML, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewEnv(nil)
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return NewEnv(envYAML)
}

// PrepareEnvironment creates the state directory.
func (env Env) PrepareEnvironment() error {
	err := os.MkdirAll(env.StateDir, 0o700)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create state directory: %v: %w", env.StateDir, err)
	}
	return nil
}
