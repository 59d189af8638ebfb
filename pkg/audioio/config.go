// Package audioio plays PCM16 audio through a local output device.
//
// Backends:
//   - Exec - pipes raw PCM to a system player (aplay on Linux, sox "play" elsewhere)
//   - Mock - CI/Testing without hardware
package audioio

import (
	"fmt"
	"runtime"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects the best available backend for the platform.
	BackendAuto Backend = "auto"
	// BackendExec pipes audio to an external player process.
	BackendExec Backend = "exec"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `json:"backend"`

	// SampleRate is the output sample rate in Hz.
	// Default: 24000 (OpenAI TTS PCM output)
	SampleRate int `json:"sample_rate"`

	// Channels is the number of output channels.
	// Default: 1 (mono)
	Channels int `json:"channels"`

	// BufferDuration is the size of write buffers.
	// Default: 20ms
	BufferDuration time.Duration `json:"buffer_duration"`

	// Device is the player-specific output device, e.g. "plughw:1,0" for
	// aplay. Empty uses the system default.
	Device string `json:"device"`

	// Command is the player binary for the exec backend. Empty selects
	// aplay on Linux and play (sox) elsewhere.
	Command string `json:"command"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     24000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the number of samples per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// BufferBytes returns the size of a buffer in bytes (assuming int16 samples).
func (c *Config) BufferBytes() int {
	return c.BufferSize() * c.Channels * 2
}

// PlayerCommand returns the player binary for the exec backend.
func (c *Config) PlayerCommand() string {
	if c.Command != "" {
		return c.Command
	}
	if runtime.GOOS == "linux" {
		return "aplay"
	}
	return "play"
}
