// Package narration composes the scene caption and the movement labels into
// one spoken sentence for a blind user.
package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/pkg/inference"
)

// ErrEmpty is returned when the model answered with nothing usable.
var ErrEmpty = errors.New("narration: empty narration")

// Narrator turns a scene description and ordered movement strings into a
// narration.
type Narrator interface {
	Narrate(ctx context.Context, scene string, movements []string) (string, error)
}

// Fallback is announced when narration fails: the raw scene description.
func Fallback(scene string) string {
	return "Scene: " + strings.TrimSpace(scene)
}

// Config configures the LLM narrator.
type Config struct {
	Model       string // empty uses the provider default
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// DefaultConfig keeps answers short and deterministic.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.3,
		MaxTokens:   100,
		Timeout:     10 * time.Second,
		Logger:      slog.Default(),
	}
}

// LLM narrates through a chat-capable inference.Provider.
type LLM struct {
	provider inference.Provider
	config   Config
	logger   *slog.Logger
}

// New creates an LLM narrator. Zero config fields take their defaults.
func New(provider inference.Provider, config Config) *LLM {
	def := DefaultConfig()
	if config.Temperature <= 0 {
		config.Temperature = def.Temperature
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
	return &LLM{
		provider: provider,
		config:   config,
		logger:   config.Logger.With("component", "narration"),
	}
}

// Narrate implements Narrator.
func (n *LLM) Narrate(ctx context.Context, scene string, movements []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout)
	defer cancel()

	system, user := ComposePrompt(scene, movements)
	resp, err := n.provider.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(system),
			inference.NewUserMessage(user),
		},
		Model:       n.config.Model,
		Temperature: n.config.Temperature,
		MaxTokens:   n.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("narration: %w", err)
	}

	text := Clean(resp.Message.Content)
	if text == "" {
		return "", ErrEmpty
	}
	n.logger.Debug("narration generated", "entities", len(movements), "latency_ms", resp.LatencyMs)
	return text, nil
}

// Health checks that the language model is reachable.
func (n *LLM) Health(ctx context.Context) error {
	return n.provider.Health(ctx)
}

var _ Narrator = (*LLM)(nil)
