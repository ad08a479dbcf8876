// Package emitter contains the signal sinks: a structured-log emitter for
// headless runs and a Telegram emitter with outcome buttons.
package emitter

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Signaler/models"
)

// LogEmitter writes signals to the structured log. Used by cmd/scanner.
type LogEmitter struct {
	logger zerolog.Logger
}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{logger: log.With().Str("component", "emitter").Logger()}
}

func (e *LogEmitter) Emit(_ context.Context, sig models.Signal) error {
	e.logger.Info().
		Str("instrument", sig.Instrument).
		Str("direction", sig.Direction.String()).
		Float64("confidence", sig.Confidence).
		Time("at", sig.At).
		Msg("signal")
	return nil
}

func (e *LogEmitter) EmitBatch(ctx context.Context, sigs []models.Signal) error {
	for _, sig := range sigs {
		if err := e.Emit(ctx, sig); err != nil {
			return err
		}
	}
	return nil
}

func (e *LogEmitter) Notify(_ context.Context, text string) error {
	e.logger.Warn().Msg(text)
	return nil
}
