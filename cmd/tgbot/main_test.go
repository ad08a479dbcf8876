package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alias1177/Signaler/internal/governor"
	"github.com/Alias1177/Signaler/models"
)

func TestEmptySweepReply(t *testing.T) {
	quiet := emptySweepReply(governor.Status{})
	assert.Contains(t, quiet, "No qualifying setup")

	paused := emptySweepReply(governor.Status{CircuitOpen: true, LossStreak: 3})
	assert.Contains(t, paused, "Paused after 3 consecutive losses")
	assert.Contains(t, paused, "/reset")
	assert.NotContains(t, paused, "No qualifying setup")
}

func TestHistorySummary(t *testing.T) {
	out := historySummary(2, 1, []models.Signal{
		{Instrument: "EURUSD-OTC", Direction: models.Buy, Confidence: 0.75},
	})
	assert.Contains(t, out, "Recorded today: 2 wins, 1 losses")
	assert.Contains(t, out, "EURUSD-OTC BUY 75%")

	assert.NotContains(t, historySummary(0, 0, nil), "Recent signals")
}
