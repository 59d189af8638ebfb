// Package tts turns warning and narration text into PCM16 audio.
//
// OpenAI voices are used when a key is configured; Command runs a local
// espeak-ng or espeak and needs no network. Chain puts them in fallback
// order so a narration is still heard when the hosted voice is down.
package tts

import (
	"context"
	"time"
)

// Provider synthesizes speech.
type Provider interface {
	// Synthesize returns the complete audio for text.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	Health(ctx context.Context) error
	Close() error
}

// AudioResult is synthesized speech as little-endian PCM16.
type AudioResult struct {
	Audio     []byte
	Format    AudioFormat
	Duration  time.Duration
	Chars     int
	LatencyMs int64
}

// AudioFormat is the PCM layout of an AudioResult.
type AudioFormat struct {
	SampleRate int // 24000 for OpenAI, 22050 for espeak
	Channels   int
	BitDepth   int
}

// openAIFormat is what response_format=pcm returns.
var openAIFormat = AudioFormat{SampleRate: 24000, Channels: 1, BitDepth: 16}

func pcmDuration(n int, format AudioFormat) time.Duration {
	if format.SampleRate == 0 || format.Channels == 0 {
		return 0
	}
	frames := n / 2 / format.Channels
	return time.Duration(frames) * time.Second / time.Duration(format.SampleRate)
}
