package models

import "context"

// CandleProvider fetches recent candles for an instrument, oldest first.
type CandleProvider interface {
	Name() string
	GetCandles(ctx context.Context, symbol, interval string, count int) ([]Candle, error)
}

// Emitter is the output sink for accepted signals. Side-effect only; the
// core does not depend on delivery confirmation.
type Emitter interface {
	Emit(ctx context.Context, sig Signal) error
	EmitBatch(ctx context.Context, sigs []Signal) error
	// Notify sends an operator-facing status message (circuit tripped,
	// autopoll ended, and so on).
	Notify(ctx context.Context, text string) error
}
