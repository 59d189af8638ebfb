package inference

import (
	"context"
	"log/slog"
)

// Chain tries multiple providers in order until one succeeds. The narrator
// uses it to fall back from a hosted model to a local one.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain. At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "inference.chain"),
	}, nil
}

// NewChainWithLogger creates a provider chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	chain, err := NewChain(providers...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "inference.chain")
	return chain, nil
}

// Chat tries each chat-capable provider until one succeeds.
func (c *Chain) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return try(ctx, c, "chat", ErrProviderUnavailable,
		func(p Provider) bool { return p.Capabilities().Chat },
		func(p Provider) (*ChatResponse, error) { return p.Chat(ctx, req) })
}

// Vision tries each vision-capable provider until one succeeds.
func (c *Chain) Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
	return try(ctx, c, "vision", ErrVisionNotSupported,
		func(p Provider) bool { return p.Capabilities().Vision },
		func(p Provider) (*VisionResponse, error) { return p.Vision(ctx, req) })
}

func try[T any](ctx context.Context, c *Chain, op string, none error, eligible func(Provider) bool, call func(Provider) (T, error)) (T, error) {
	var zero T
	var errs []error

	for i, p := range c.providers {
		if !eligible(p) {
			continue
		}

		resp, err := call(p)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", "op", op, "provider_index", i)
			}
			return resp, nil
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next", "op", op, "provider_index", i, "error", err)

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	if len(errs) == 0 {
		return zero, none
	}
	return zero, &ChainError{Errors: errs}
}

// Capabilities returns combined capabilities of all providers.
func (c *Chain) Capabilities() Capabilities {
	var caps Capabilities
	for _, p := range c.providers {
		pc := p.Capabilities()
		caps.Chat = caps.Chat || pc.Chat
		caps.Vision = caps.Vision || pc.Vision
	}
	return caps
}

// Health succeeds when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var healthy int
	var lastErr error

	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			lastErr = err
		} else {
			healthy++
		}
	}

	if healthy == 0 {
		return WrapError("chain", lastErr)
	}
	c.logger.Debug("health check complete", "healthy", healthy, "total", len(c.providers))
	return nil
}

// Close closes all providers.
func (c *Chain) Close() error {
	var lastErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Providers returns the providers in order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

var _ Provider = (*Chain)(nil)
