// Package config loads process configuration for the narrator commands.
// Values come from the environment, optionally seeded from a .env file;
// command-line flags override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults mirror a laptop webcam plus a local Ollama server.
const (
	DefaultCameraID      = 0
	DefaultWidth         = 1280
	DefaultHeight        = 720
	DefaultFPS           = 30
	DefaultDetectorModel = "models/yolov8n.onnx"
	DefaultLLMBaseURL    = "http://localhost:11434/v1"
	DefaultLLMModel      = "llama3.2:3b"
	DefaultVisionModel   = "llava:7b"
	DefaultTTSProvider   = "espeak"
	DefaultAudioCommand  = "aplay"
	DefaultHTTPPort      = "8080"
	DefaultMQTTTopic     = "narrator"
	DefaultLogLevel      = "info"
)

// App holds everything cmd/narrator needs to assemble a running system.
type App struct {
	// Camera
	CameraID  int
	VideoPath string // overrides CameraID when set
	Width     int
	Height    int
	FPS       int

	// Detection
	DetectorModel      string
	DetectorConfidence float64

	// Language and vision models (OpenAI-compatible endpoint)
	LLMBaseURL  string
	LLMAPIKey   string
	LLMModel    string
	VisionModel string
	LLMTimeout  time.Duration

	// GeminiAPIKey adds Gemini as a fallback provider when set.
	GeminiAPIKey string

	// Speech
	TTSProvider  string // "openai", "espeak" or "none"
	OpenAIAPIKey string
	TTSVoice     string
	AudioCommand string
	Muted        bool

	// Presentation
	HTTPPort    string
	MQTTBroker  string
	MQTTTopic   string
	JournalPath string

	LogLevel string
}

// Load reads .env (if present) and then the process environment.
func Load() (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds an App from the current environment only.
func FromEnv() (*App, error) {
	var errs []error

	cfg := &App{
		CameraID:           envInt("NARRATOR_CAMERA", DefaultCameraID, &errs),
		VideoPath:          envString("NARRATOR_VIDEO", ""),
		Width:              envInt("NARRATOR_WIDTH", DefaultWidth, &errs),
		Height:             envInt("NARRATOR_HEIGHT", DefaultHeight, &errs),
		FPS:                envInt("NARRATOR_FPS", DefaultFPS, &errs),
		DetectorModel:      envString("NARRATOR_DETECTOR_MODEL", DefaultDetectorModel),
		DetectorConfidence: envFloat("NARRATOR_DETECTOR_CONFIDENCE", 0.5, &errs),
		LLMBaseURL:         envString("NARRATOR_LLM_URL", envString("OLLAMA_URL", DefaultLLMBaseURL)),
		LLMAPIKey:          envString("NARRATOR_LLM_API_KEY", ""),
		LLMModel:           envString("NARRATOR_LLM_MODEL", DefaultLLMModel),
		VisionModel:        envString("NARRATOR_VISION_MODEL", DefaultVisionModel),
		LLMTimeout:         envDuration("NARRATOR_LLM_TIMEOUT", 10*time.Second, &errs),
		GeminiAPIKey:       envString("GEMINI_API_KEY", ""),
		TTSProvider:        envString("NARRATOR_TTS", DefaultTTSProvider),
		OpenAIAPIKey:       envString("OPENAI_API_KEY", ""),
		TTSVoice:           envString("NARRATOR_TTS_VOICE", ""),
		AudioCommand:       envString("NARRATOR_AUDIO_CMD", DefaultAudioCommand),
		Muted:              envBool("NARRATOR_MUTE", false, &errs),
		HTTPPort:           envString("NARRATOR_PORT", DefaultHTTPPort),
		MQTTBroker:         envString("MQTT_BROKER", ""),
		MQTTTopic:          envString("MQTT_TOPIC", DefaultMQTTTopic),
		JournalPath:        envString("NARRATOR_JOURNAL", ""),
		LogLevel:           envString("LOG_LEVEL", DefaultLogLevel),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges that would otherwise fail deep inside a loop.
func (c *App) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 || c.FPS > 120 {
		return fmt.Errorf("config: fps must be in (0, 120], got %d", c.FPS)
	}
	if c.DetectorConfidence <= 0 || c.DetectorConfidence >= 1 {
		return fmt.Errorf("config: detector confidence must be in (0, 1), got %v", c.DetectorConfidence)
	}
	switch c.TTSProvider {
	case "openai", "espeak", "none":
	default:
		return fmt.Errorf("config: unknown tts provider %q", c.TTSProvider)
	}
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := envString(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, errs *[]error) float64 {
	v := envString(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return f
}

func envBool(key string, def bool, errs *[]error) bool {
	v := envString(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return b
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := envString(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config: %s: %w", key, err))
		return def
	}
	return d
}
