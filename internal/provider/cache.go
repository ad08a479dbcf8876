package provider

import (
	"sync"
	"time"

	"github.com/Alias1177/Signaler/models"
)

type cacheEntry struct {
	candles []models.Candle
	exp     time.Time
}

// candleCache is a tiny TTL map; entries are checked lazily on read.
type candleCache struct {
	mu sync.RWMutex
	m  map[string]cacheEntry
}

func newCandleCache() *candleCache {
	return &candleCache{m: make(map[string]cacheEntry)}
}

func (c *candleCache) get(key string) ([]models.Candle, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.candles, true
}

func (c *candleCache) set(key string, candles []models.Candle, ttl time.Duration) {
	c.mu.Lock()
	c.m[key] = cacheEntry{candles: candles, exp: time.Now().Add(ttl)}
	c.mu.Unlock()
}
