package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const providerCommand = "command"

// defaultCommands are tried in order when no command is configured.
var defaultCommands = []string{"espeak-ng", "espeak"}

// Command implements Provider with a local espeak-compatible synthesizer.
// It needs no network and serves as the fallback when hosted TTS fails.
type Command struct {
	config *Config
	path   string
	logger *slog.Logger
}

// NewCommand creates a provider for the configured synthesizer binary, or
// the first of espeak-ng and espeak found on PATH.
func NewCommand(opts ...Option) (*Command, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = "en-us"
	cfg.Apply(opts...)

	candidates := defaultCommands
	if cfg.Command != "" {
		candidates = []string{cfg.Command}
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return &Command{
				config: cfg,
				path:   path,
				logger: cfg.Logger.With("component", "tts.command"),
			}, nil
		}
	}
	return nil, WrapError(providerCommand, ErrNoCommand)
}

// Synthesize runs the synthesizer and decodes its WAV output.
func (c *Command) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, WrapError(providerCommand, ErrEmptyText)
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, c.path, c.args()...)
	cmd.Stdin = strings.NewReader(text)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, WrapError(providerCommand, fmt.Errorf("run %s: %w", c.path, err))
	}

	pcm, format, err := decodeWAV(out)
	if err != nil {
		return nil, WrapError(providerCommand, err)
	}

	latency := time.Since(start).Milliseconds()
	c.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(pcm),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio:     pcm,
		Format:    format,
		Duration:  pcmDuration(len(pcm), format),
		Chars:     len(text),
		LatencyMs: latency,
	}, nil
}

func (c *Command) args() []string {
	wpm := 175
	if c.config.Speed > 0 {
		wpm = int(175 * c.config.Speed)
	}
	return []string{"--stdout", "--stdin", "-v", c.config.VoiceID, "-s", strconv.Itoa(wpm)}
}

// Health checks that the binary is still present.
func (c *Command) Health(ctx context.Context) error {
	if _, err := exec.LookPath(c.path); err != nil {
		return WrapError(providerCommand, err)
	}
	return nil
}

// Close releases resources.
func (c *Command) Close() error {
	return nil
}

// Path returns the resolved synthesizer binary.
func (c *Command) Path() string {
	return c.path
}

// Verify Command implements Provider at compile time.
var _ Provider = (*Command)(nil)
