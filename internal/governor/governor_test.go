package governor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Signaler/models"
)

// fakeClock lets the tests drive wall time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGovernor(cfg Config) (*Governor, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	cfg.Now = clock.now
	return New(cfg), clock
}

func baseConfig() Config {
	return Config{
		Cooldown:            5 * time.Minute,
		GlobalMinGap:        7 * time.Minute,
		MaxEmissionsPerHour: 6,
		LossStreakLimit:     3,
	}
}

func TestCooldown(t *testing.T) {
	cfg := baseConfig()
	cfg.GlobalMinGap = 0
	g, clock := newTestGovernor(cfg)

	require.True(t, g.Allow("EURUSD-OTC").Allowed)
	g.RecordEmission("EURUSD-OTC")

	clock.advance(3 * time.Minute)
	v := g.Allow("EURUSD-OTC")
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonCooldown, v.Reason)

	clock.advance(3 * time.Minute) // t = 6min
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)
}

func TestCooldownIsPerInstrument(t *testing.T) {
	cfg := baseConfig()
	cfg.GlobalMinGap = 0
	g, clock := newTestGovernor(cfg)

	g.RecordEmission("EURUSD-OTC")
	clock.advance(time.Minute)

	// A different instrument is not affected by EURUSD's cooldown.
	assert.True(t, g.Allow("GBPUSD-OTC").Allowed)
}

func TestGlobalGap(t *testing.T) {
	g, clock := newTestGovernor(baseConfig())

	g.RecordEmission("EURUSD-OTC")
	clock.advance(5 * time.Minute)

	v := g.Allow("GBPUSD-OTC")
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonGlobalGap, v.Reason)

	clock.advance(3 * time.Minute) // t = 8min > 7min gap
	assert.True(t, g.Allow("GBPUSD-OTC").Allowed)
}

func TestHourlyCap(t *testing.T) {
	cfg := baseConfig()
	cfg.Cooldown = 0
	cfg.GlobalMinGap = 0
	cfg.MaxEmissionsPerHour = 3
	g, clock := newTestGovernor(cfg)

	for i := 0; i < 3; i++ {
		require.True(t, g.Allow("EURUSD-OTC").Allowed)
		g.RecordEmission("EURUSD-OTC")
		clock.advance(time.Minute)
	}

	v := g.Allow("EURUSD-OTC")
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonHourlyCap, v.Reason)

	// Oldest timestamps fall out of the sliding window.
	clock.advance(time.Hour)
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)
}

func TestCircuitBreaker(t *testing.T) {
	g, _ := newTestGovernor(baseConfig())

	assert.False(t, g.RecordOutcome(models.OutcomeLoss))
	assert.False(t, g.RecordOutcome(models.OutcomeLoss))
	assert.True(t, g.RecordOutcome(models.OutcomeLoss), "third loss trips the breaker")

	// Tripped exactly once.
	assert.False(t, g.RecordOutcome(models.OutcomeLoss))

	v := g.Allow("EURUSD-OTC")
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonCircuitOpen, v.Reason)
	assert.True(t, g.Snapshot().CircuitOpen)

	// A win clears the streak but the circuit stays open until Reset.
	g.RecordOutcome(models.OutcomeWin)
	st := g.Snapshot()
	assert.Equal(t, 0, st.LossStreak)
	assert.True(t, st.CircuitOpen)
	assert.False(t, g.Allow("EURUSD-OTC").Allowed)

	g.Reset()
	st = g.Snapshot()
	assert.False(t, st.CircuitOpen)
	assert.Equal(t, 0, st.LossStreak)
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)
}

func TestWinResetsStreak(t *testing.T) {
	g, _ := newTestGovernor(baseConfig())

	g.RecordOutcome(models.OutcomeLoss)
	g.RecordOutcome(models.OutcomeLoss)
	g.RecordOutcome(models.OutcomeWin)
	assert.Equal(t, 0, g.Snapshot().LossStreak)

	// The streak starts over; two more losses do not trip.
	g.RecordOutcome(models.OutcomeLoss)
	assert.False(t, g.RecordOutcome(models.OutcomeLoss))
	assert.False(t, g.Snapshot().CircuitOpen)
}

func TestSkipIsNeutral(t *testing.T) {
	g, _ := newTestGovernor(baseConfig())
	g.RecordOutcome(models.OutcomeLoss)
	g.RecordOutcome(models.OutcomeSkip)
	st := g.Snapshot()
	assert.Equal(t, 1, st.LossStreak)
	assert.Equal(t, 0, st.DailyWins)
}

func TestDailyCaps(t *testing.T) {
	cfg := baseConfig()
	cfg.DailyLossCap = 2
	g, clock := newTestGovernor(cfg)

	g.RecordOutcome(models.OutcomeLoss)
	g.RecordOutcome(models.OutcomeLoss)

	v := g.Allow("EURUSD-OTC")
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonDailyCap, v.Reason)

	// Counters reset at the UTC day boundary.
	clock.advance(24 * time.Hour)
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)
	st := g.Snapshot()
	assert.Equal(t, 0, st.DailyLosses)
}

func TestBatchEmissionSingleGlobalMark(t *testing.T) {
	g, clock := newTestGovernor(baseConfig())

	g.RecordBatchEmission([]string{"EURUSD-OTC", "GBPUSD-OTC"})

	// Both instruments are on cooldown, and the bundle set the global gap
	// once.
	clock.advance(time.Minute)
	assert.Equal(t, ReasonGlobalGap, g.Allow("USDJPY-OTC").Reason)
	clock.advance(7 * time.Minute)
	assert.Equal(t, ReasonCooldown, g.Allow("EURUSD-OTC").Reason)
	assert.Equal(t, ReasonCooldown, g.Allow("GBPUSD-OTC").Reason)
	assert.True(t, g.Allow("USDJPY-OTC").Allowed)
}

func TestEconomyWidensPacing(t *testing.T) {
	g, clock := newTestGovernor(baseConfig())
	g.SetEconomy(true)

	g.RecordEmission("EURUSD-OTC")

	// Normal cooldown (5m) and gap (7m) have elapsed, economy minimums
	// (15m/20m) have not.
	clock.advance(10 * time.Minute)
	assert.Equal(t, ReasonGlobalGap, g.Allow("EURUSD-OTC").Reason)

	clock.advance(11 * time.Minute) // t = 21min
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)

	g.SetEconomy(false)
	assert.True(t, g.Allow("EURUSD-OTC").Allowed)
}
