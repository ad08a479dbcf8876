// Package provider combines concrete candle vendors into one ordered
// fallback chain behind the CandleProvider interface.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/models"
)

// Chain tries each provider in order until one returns data. A short-TTL
// cache sits in front so a manual /signal right after a sweep does not
// burn vendor quota.
type Chain struct {
	providers []models.CandleProvider
	cache     *candleCache
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewChain builds a fallback chain. ttl <= 0 disables caching.
func NewChain(ttl time.Duration, providers ...models.CandleProvider) *Chain {
	var cache *candleCache
	if ttl > 0 {
		cache = newCandleCache()
	}
	return &Chain{
		providers: providers,
		cache:     cache,
		ttl:       ttl,
		logger:    log.With().Str("component", "provider_chain").Logger(),
	}
}

func (c *Chain) Name() string { return "chain" }

// GetCandles returns candles from the first provider that has them.
func (c *Chain) GetCandles(ctx context.Context, symbol, interval string, count int) ([]models.Candle, error) {
	key := fmt.Sprintf("%s|%s|%d", symbol, interval, count)
	if c.cache != nil {
		if candles, ok := c.cache.get(key); ok {
			return candles, nil
		}
	}

	var errs []error
	for _, p := range c.providers {
		candles, err := p.GetCandles(ctx, symbol, interval, count)
		if err != nil {
			c.logger.Debug().Err(err).Str("provider", p.Name()).Str("symbol", symbol).
				Msg("provider failed, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if c.cache != nil {
			c.cache.set(key, candles, c.ttl)
		}
		return candles, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no providers configured")
	}
	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
