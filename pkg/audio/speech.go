package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-narrator/pkg/audioio"
	"github.com/teslashibe/go-narrator/pkg/tts"
)

// ToneConfig describes the alert tone.
type ToneConfig struct {
	Frequency float64
	Duration  time.Duration
	Amplitude float64
}

// DefaultTone is a short 800 Hz beep.
func DefaultTone() ToneConfig {
	return ToneConfig{Frequency: 800, Duration: 200 * time.Millisecond, Amplitude: 0.6}
}

// SpeechRenderer renders speech cues through a TTS provider and tones
// through a local synthesizer. Tones use their own sink so a tone can sound
// while speech is playing.
type SpeechRenderer struct {
	tts      tts.Provider
	speech   audioio.Sink
	toneSink audioio.Sink
	tone     ToneConfig
}

// NewSpeechRenderer creates a renderer. toneSink may be nil to play tones
// on the speech sink.
func NewSpeechRenderer(provider tts.Provider, speech, toneSink audioio.Sink, tone ToneConfig) *SpeechRenderer {
	if toneSink == nil {
		toneSink = speech
	}
	if tone.Frequency <= 0 || tone.Duration <= 0 {
		tone = DefaultTone()
	}
	return &SpeechRenderer{tts: provider, speech: speech, toneSink: toneSink, tone: tone}
}

// Render implements Renderer.
func (r *SpeechRenderer) Render(ctx context.Context, cue Cue) error {
	if cue.Kind == KindTone {
		cfg := r.toneSink.Config()
		return play(ctx, r.toneSink, audioio.Tone(r.tone.Frequency, r.tone.Duration, r.tone.Amplitude, cfg.SampleRate))
	}

	result, err := r.tts.Synthesize(ctx, cue.Text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	var chunk audioio.AudioChunk
	chunk.FromBytes(result.Audio, result.Format.SampleRate, max(result.Format.Channels, 1))
	return play(ctx, r.speech, chunk)
}

func play(ctx context.Context, sink audioio.Sink, chunk audioio.AudioChunk) error {
	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("start %s sink: %w", sink.Name(), err)
	}
	if err := sink.Write(ctx, chunk); err != nil {
		sink.Clear()
		return fmt.Errorf("write %s sink: %w", sink.Name(), err)
	}
	return sink.Flush(ctx)
}

// Close releases the sinks and the TTS provider.
func (r *SpeechRenderer) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{r.speech, r.toneSink, r.tts} {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Renderer = (*SpeechRenderer)(nil)
