// Package caption turns a snapshotted frame into a short scene description
// using a vision-capable language model.
package caption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/pkg/inference"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Unavailable is announced in place of a caption when none can be produced.
const Unavailable = "Unable to describe scene."

// ErrEmptyFrame is returned when the frame carries no image.
var ErrEmptyFrame = errors.New("caption: empty frame")

// Captioner describes a frame.
type Captioner interface {
	Caption(ctx context.Context, frame vision.Frame) (string, error)
}

// Config configures the vision captioner.
type Config struct {
	Prompt      string
	System      string
	MaxTokens   int
	JPEGQuality int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// DefaultConfig asks for one plain sentence, the way an image captioning
// model would answer.
func DefaultConfig() Config {
	return Config{
		Prompt:      "Describe this scene in one short sentence. Mention people, vehicles and obstacles.",
		System:      "You caption camera frames for a navigation aid. Only describe what is certainly visible.",
		MaxTokens:   60,
		JPEGQuality: inference.DefaultJPEGQuality,
		Timeout:     8 * time.Second,
		Logger:      slog.Default(),
	}
}

// Vision captions frames through an inference.Provider.
type Vision struct {
	provider inference.Provider
	config   Config
	logger   *slog.Logger
}

// New creates a captioner. Zero config fields take their defaults.
func New(provider inference.Provider, config Config) *Vision {
	def := DefaultConfig()
	if config.Prompt == "" {
		config.Prompt = def.Prompt
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = def.MaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}
	return &Vision{
		provider: provider,
		config:   config,
		logger:   config.Logger.With("component", "caption"),
	}
}

// Caption implements Captioner. The returned text is sanitized.
func (v *Vision) Caption(ctx context.Context, frame vision.Frame) (string, error) {
	img := frame.Image()
	if img == nil {
		return "", ErrEmptyFrame
	}
	jpeg, err := inference.EncodeJPEG(img, v.config.JPEGQuality)
	if err != nil {
		return "", fmt.Errorf("caption: encode frame %d: %w", frame.Seq, err)
	}

	ctx, cancel := context.WithTimeout(ctx, v.config.Timeout)
	defer cancel()

	resp, err := v.provider.Vision(ctx, &inference.VisionRequest{
		Images:    [][]byte{jpeg},
		Prompt:    v.config.Prompt,
		System:    v.config.System,
		MaxTokens: v.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("caption: %w", err)
	}

	raw := strings.TrimSpace(resp.Content)
	if raw == "" {
		return "", fmt.Errorf("caption: %w", inference.ErrEmptyResponse)
	}

	caption := Sanitize(raw)
	if caption != raw {
		v.logger.Info("caption sanitized", "raw", raw, "caption", caption)
	}
	v.logger.Debug("frame captioned", "seq", frame.Seq, "latency_ms", resp.LatencyMs)
	return caption, nil
}

var _ Captioner = (*Vision)(nil)
