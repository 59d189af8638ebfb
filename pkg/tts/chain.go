package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain tries providers in order. The first one that synthesizes wins.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a chain. At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	return NewChainWithLogger(slog.Default(), providers...)
}

// NewChainWithLogger creates a chain that logs fallbacks to logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "tts.chain"),
	}, nil
}

// Synthesize returns the first successful synthesis. A cancelled context
// stops the fallback.
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	errs := make([]error, 0, len(c.providers))
	for i, p := range c.providers {
		result, err := p.Synthesize(ctx, text)
		if err == nil {
			if i > 0 {
				c.logger.Info("speech from fallback voice", "index", i)
			}
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}
		c.logger.Warn("voice failed", "index", i, "error", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// Health succeeds when any provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	errs := make([]error, 0, len(c.providers))
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// Close closes every provider.
func (c *Chain) Close() error {
	errs := make([]error, 0, len(c.providers))
	for _, p := range c.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

var _ Provider = (*Chain)(nil)
