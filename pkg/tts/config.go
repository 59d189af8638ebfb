package tts

import (
	"log/slog"
	"time"
)

// Config is shared by the providers; each reads the fields it needs.
type Config struct {
	APIKey  string
	BaseURL string // full speech endpoint for OpenAI

	VoiceID string
	ModelID string
	Speed   float64 // 1.0 is the normal rate

	Command string // synthesizer binary for Command

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

func WithAPIKey(key string) Option { return func(c *Config) { c.APIKey = key } }

func WithBaseURL(url string) Option { return func(c *Config) { c.BaseURL = url } }

func WithVoice(voiceID string) Option { return func(c *Config) { c.VoiceID = voiceID } }

func WithModel(modelID string) Option { return func(c *Config) { c.ModelID = modelID } }

// WithSpeed sets the speaking rate multiplier.
func WithSpeed(speed float64) Option { return func(c *Config) { c.Speed = speed } }

// WithCommand selects the synthesizer binary for Command.
func WithCommand(command string) Option { return func(c *Config) { c.Command = command } }

func WithTimeout(timeout time.Duration) Option { return func(c *Config) { c.Timeout = timeout } }

// WithRetry sets how often a hosted request is retried and the base delay
// between attempts.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Option { return func(c *Config) { c.Logger = logger } }

// DefaultConfig favors latency: warnings are short, so a hung request is
// worth abandoning quickly.
func DefaultConfig() *Config {
	return &Config{
		Speed:      1.0,
		Timeout:    15 * time.Second,
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies opts in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate requires an API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
