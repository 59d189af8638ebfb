package tts

import (
	"context"
	"sync"
)

// Mock is a Provider for tests. By default it returns 20ms of silence
// per character at 24kHz.
type Mock struct {
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error

	mu     sync.Mutex
	spoken []string
	health int
	closed bool
}

// NewMock creates a healthy mock.
func NewMock() *Mock {
	return &Mock{SynthesizeFunc: silence}
}

// WithError creates a mock whose every call fails with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

func silence(_ context.Context, text string) (*AudioResult, error) {
	audio := make([]byte, len(text)*960)
	return &AudioResult{
		Audio:     audio,
		Format:    openAIFormat,
		Duration:  pcmDuration(len(audio), openAIFormat),
		Chars:     len(text),
		LatencyMs: 1,
	}, nil
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.mu.Lock()
	m.spoken = append(m.spoken, text)
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, WrapError("mock", ErrProviderUnavailable)
	}
	return fn(ctx, text)
}

func (m *Mock) Health(ctx context.Context) error {
	m.mu.Lock()
	m.health++
	fn := m.HealthFunc
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Spoken returns every text passed to Synthesize, in order.
func (m *Mock) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// CallCount returns how often method ("Synthesize", "Health" or "Close")
// was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch method {
	case "Synthesize":
		return len(m.spoken)
	case "Health":
		return m.health
	case "Close":
		if m.closed {
			return 1
		}
	}
	return 0
}

var _ Provider = (*Mock)(nil)
