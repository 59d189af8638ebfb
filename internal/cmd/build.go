package cmd

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-narrator/internal/config"
	"github.com/teslashibe/go-narrator/pkg/audioio"
	"github.com/teslashibe/go-narrator/pkg/inference"
	"github.com/teslashibe/go-narrator/pkg/tts"
)

// newProvider builds the language and vision model provider. Gemini joins
// as a fallback when a key is configured.
func newProvider(cfg *config.App, logger *slog.Logger) (inference.Provider, error) {
	primary, err := inference.NewClient(
		inference.WithBaseURL(cfg.LLMBaseURL),
		inference.WithAPIKey(cfg.LLMAPIKey),
		inference.WithModel(cfg.LLMModel),
		inference.WithVisionModel(cfg.VisionModel),
		inference.WithTimeout(cfg.LLMTimeout),
		inference.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("inference client: %w", err)
	}
	if cfg.GeminiAPIKey == "" {
		return primary, nil
	}

	gemini, err := inference.NewGemini(
		inference.WithAPIKey(cfg.GeminiAPIKey),
		inference.WithTimeout(cfg.LLMTimeout),
		inference.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return inference.NewChainWithLogger(logger, primary, gemini)
}

// newSpeech builds the TTS provider. OpenAI falls back to espeak when it
// is installed.
func newSpeech(cfg *config.App, logger *slog.Logger) (tts.Provider, error) {
	switch cfg.TTSProvider {
	case "openai":
		opts := []tts.Option{tts.WithAPIKey(cfg.OpenAIAPIKey), tts.WithLogger(logger)}
		if cfg.TTSVoice != "" {
			opts = append(opts, tts.WithVoice(cfg.TTSVoice))
		}
		hosted, err := tts.NewOpenAI(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai tts: %w", err)
		}
		local, err := tts.NewCommand(tts.WithLogger(logger))
		if err != nil {
			logger.Warn("no local synthesizer, speech has no fallback", "error", err)
			return hosted, nil
		}
		return tts.NewChainWithLogger(logger, hosted, local)

	case "espeak":
		opts := []tts.Option{tts.WithLogger(logger)}
		if cfg.TTSVoice != "" {
			opts = append(opts, tts.WithVoice(cfg.TTSVoice))
		}
		return tts.NewCommand(opts...)

	default:
		return tts.NewMock(), nil
	}
}

// newSinks opens one sink for speech and one for tones, so a tone can
// sound over speech. Muted runs use mock sinks.
func newSinks(cfg *config.App, logger *slog.Logger) (speech, tone audioio.Sink, err error) {
	sinkCfg := audioio.DefaultConfig()
	sinkCfg.Command = cfg.AudioCommand
	if cfg.Muted || cfg.TTSProvider == "none" {
		sinkCfg.Backend = audioio.BackendMock
	}

	speech, err = audioio.NewSink(sinkCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("speech sink: %w", err)
	}
	tone, err = audioio.NewSink(sinkCfg, logger)
	if err != nil {
		speech.Close()
		return nil, nil, fmt.Errorf("tone sink: %w", err)
	}
	return speech, tone, nil
}
