package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/internal/httpc"
)

const providerGemini = "gemini"

// Gemini implements Provider on Google's generateContent API, which is not
// OpenAI-compatible.
type Gemini struct {
	baseURL string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewGemini creates a Gemini provider. An API key is required.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	cfg.Model = "gemini-2.0-flash"
	cfg.VisionModel = "gemini-2.0-flash"
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	return &Gemini{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		config:  cfg,
		http:    httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Chat generates a completion. System messages become the system instruction.
func (g *Gemini) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	model := firstNonEmpty(req.Model, g.config.Model)

	payload := geminiRequest{Config: g.generation(req.MaxTokens, req.Temperature)}
	payload.Config.StopSequences = req.Stop
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			payload.System = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case RoleAssistant:
			payload.Contents = append(payload.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	text, finish, err := g.generate(ctx, model, payload)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{
		Message:      NewAssistantMessage(text),
		FinishReason: finish,
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// Vision sends the prompt followed by inline JPEG parts.
func (g *Gemini) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	if len(req.Images) == 0 {
		return nil, WrapError(providerGemini, ErrNoImage)
	}
	start := time.Now()
	model := firstNonEmpty(req.Model, g.config.VisionModel)

	parts := []geminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		parts = append(parts, geminiPart{Inline: &geminiBlob{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		Config:   g.generation(req.MaxTokens, req.Temperature),
	}
	if req.System != "" {
		payload.System = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	text, _, err := g.generate(ctx, model, payload)
	if err != nil {
		return nil, err
	}
	return &VisionResponse{
		Content:   text,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Capabilities returns Gemini's capabilities.
func (g *Gemini) Capabilities() Capabilities {
	return Capabilities{Chat: true, Vision: true}
}

// Health fetches the configured model's metadata.
func (g *Gemini) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/models/"+g.config.Model, nil)
	if err != nil {
		return WrapError(providerGemini, err)
	}
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return WrapError(providerGemini, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return g.parseError(resp)
	}
	return nil
}

// Close releases idle connections.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

func (g *Gemini) generation(maxTokens int, temperature float64) geminiGeneration {
	return geminiGeneration{
		Temperature:     firstPositiveFloat(temperature, g.config.Temperature),
		MaxOutputTokens: firstPositive(maxTokens, g.config.MaxTokens),
	}
}

func (g *Gemini) generate(ctx context.Context, model string, payload geminiRequest) (text, finish string, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", WrapError(providerGemini, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", WrapError(providerGemini, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", "", WrapError(providerGemini, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", g.parseError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", "", WrapError(providerGemini, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), result.Candidates[0].FinishReason, nil
}

func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Provider: providerGemini}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Code = errResp.Error.Status
	}
	return apiErr
}

type geminiRequest struct {
	Contents []geminiContent  `json:"contents"`
	System   *geminiContent   `json:"systemInstruction,omitempty"`
	Config   geminiGeneration `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text   string      `json:"text,omitempty"`
	Inline *geminiBlob `json:"inline_data,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGeneration struct {
	Temperature     float64  `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

var _ Provider = (*Gemini)(nil)
