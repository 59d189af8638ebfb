package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/internal/httpc"
)

const (
	openAISpeechURL = "https://api.openai.com/v1/audio/speech"
	providerOpenAI  = "openai"
)

// OpenAI voices. Nova and Shimmer read short warnings most clearly.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

const (
	ModelTTS1   = "tts-1"
	ModelTTS1HD = "tts-1-hd"
)

// OpenAI synthesizes through the OpenAI speech endpoint as raw 24kHz mono
// PCM16.
type OpenAI struct {
	config *Config
	url    string
	http   *http.Client
	logger *slog.Logger
}

type speechRequest struct {
	Model          string  `json:"model"`
	Voice          string  `json:"voice"`
	Input          string  `json:"input"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed,omitempty"`
}

// NewOpenAI creates the provider. WithAPIKey is required.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceNova
	}

	url := cfg.BaseURL
	if url == "" {
		url = openAISpeechURL
	}
	return &OpenAI{
		config: cfg,
		url:    url,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Synthesize implements Provider.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, WrapError(providerOpenAI, ErrEmptyText)
	}

	req := speechRequest{
		Model:          o.config.ModelID,
		Voice:          o.config.VoiceID,
		Input:          text,
		ResponseFormat: "pcm",
	}
	if o.config.Speed > 0 && o.config.Speed != 1 {
		req.Speed = o.config.Speed
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, WrapError(providerOpenAI, err)
	}

	start := time.Now()
	audio, err := o.post(ctx, body)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()

	o.logger.Debug("speech synthesized", "chars", len(text), "bytes", len(audio), "latency_ms", latency)
	return &AudioResult{
		Audio:     audio,
		Format:    openAIFormat,
		Duration:  pcmDuration(len(audio), openAIFormat),
		Chars:     len(text),
		LatencyMs: latency,
	}, nil
}

// post sends body, retrying transport failures, 429 and 5xx with a
// linear backoff.
func (o *OpenAI) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerOpenAI, err)
		}
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = WrapError(providerOpenAI, err)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return data, nil
		}

		apiErr := parseAPIError(resp.StatusCode, data)
		if !apiErr.Temporary() {
			return nil, apiErr
		}
		o.logger.Warn("speech request failed, retrying", "attempt", attempt+1, "status", resp.StatusCode)
		lastErr = apiErr
	}
	return nil, lastErr
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Provider: providerOpenAI, StatusCode: status, Message: strings.TrimSpace(string(body))}

	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Code = parsed.Error.Code
	}
	return apiErr
}

// Health lists models with the configured key.
func (o *OpenAI) Health(ctx context.Context) error {
	url := strings.TrimSuffix(o.url, "/audio/speech") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.http.Do(req)
	if err != nil {
		return WrapError(providerOpenAI, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, data)
	}
	return nil
}

func (o *OpenAI) Close() error {
	o.http.CloseIdleConnections()
	return nil
}

var _ Provider = (*OpenAI)(nil)
