package models

import "time"

// Direction is the side of a trading suggestion.
type Direction int

const (
	None Direction = iota
	Buy
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Decision is the output of a strategy for one instrument. Immutable once
// produced; Confidence is a heuristic score in [0,1], not a calibrated
// probability.
type Decision struct {
	Direction  Direction
	Confidence float64
	Votes      int     // confluence votes for the winning side
	Score      float64 // weighted-score strategies only
}

// Signal is an accepted decision on its way to an emitter.
type Signal struct {
	ID         int64 // storage id, 0 when history is disabled
	Instrument string
	Direction  Direction
	Confidence float64
	At         time.Time
}

// Outcome is the externally reported result of an emitted signal.
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
	OutcomeSkip
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "skip"
	}
}

// ParseOutcome maps the wire form used by callback buttons back to an
// Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	switch s {
	case "win":
		return OutcomeWin, true
	case "loss":
		return OutcomeLoss, true
	case "skip":
		return OutcomeSkip, true
	}
	return OutcomeSkip, false
}
