package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Signaler/models"
)

type stubProvider struct {
	name    string
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GetCandles(_ context.Context, _, _ string, _ int) ([]models.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func someCandles() []models.Candle {
	return []models.Candle{
		{Timestamp: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5},
	}
}

func TestChainFallsBack(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("quota exhausted")}
	secondary := &stubProvider{name: "secondary", candles: someCandles()}
	chain := NewChain(0, primary, secondary)

	candles, err := chain.GetCandles(context.Background(), "EUR/USD", "5min", 60)
	require.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChainAllFail(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	secondary := &stubProvider{name: "secondary", err: errors.New("also down")}
	chain := NewChain(0, primary, secondary)

	_, err := chain.GetCandles(context.Background(), "EUR/USD", "5min", 60)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestChainCache(t *testing.T) {
	primary := &stubProvider{name: "primary", candles: someCandles()}
	chain := NewChain(time.Minute, primary)

	_, err := chain.GetCandles(context.Background(), "EUR/USD", "5min", 60)
	require.NoError(t, err)
	_, err = chain.GetCandles(context.Background(), "EUR/USD", "5min", 60)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls, "second call must hit the cache")

	// Different parameters miss the cache.
	_, err = chain.GetCandles(context.Background(), "EUR/USD", "15min", 60)
	require.NoError(t, err)
	assert.Equal(t, 2, primary.calls)
}
