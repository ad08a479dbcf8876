package strategy

import "github.com/Alias1177/Signaler/models"

// Confluence is the vote-based strategy: up to four independent signals
// each cast one vote, and a side only wins when it collects at least
// RequiredVotes and strictly more than the other side.
//
// The vote-to-confidence mapping (0.70 at the minimum passing count,
// +0.05 per extra vote, capped) is a heuristic carried over from the
// reference bot; it is deliberately not rebalanced.
type Confluence struct {
	RequiredVotes int
	MinConf       float64
	MaxConf       float64
}

// NewConfluence applies the reference defaults for zero fields.
func NewConfluence(requiredVotes int) *Confluence {
	if requiredVotes <= 0 {
		requiredVotes = 4
	}
	return &Confluence{
		RequiredVotes: requiredVotes,
		MinConf:       0.70,
		MaxConf:       0.95,
	}
}

func (c *Confluence) Name() string { return "confluence" }

func (c *Confluence) Evaluate(snap Snapshot, candles []models.Candle) models.Decision {
	if len(candles) == 0 {
		return models.Decision{}
	}
	lastClose := candles[len(candles)-1].Close

	var up, dn int

	// Price vs long trend EMA: equality casts no vote.
	if snap.EMATrend.OK {
		if lastClose > snap.EMATrend.V {
			up++
		} else if lastClose < snap.EMATrend.V {
			dn++
		}
	}

	if snap.RSI.OK {
		if snap.RSI.V > 50 {
			up++
		} else {
			dn++
		}
	}

	if snap.MACDLine.OK && snap.MACDSignal.OK {
		if snap.MACDLine.V > snap.MACDSignal.V {
			up++
		} else {
			dn++
		}
	}

	if snap.EMAFast.OK && snap.EMAMid.OK {
		if snap.EMAFast.V > snap.EMAMid.V {
			up++
		} else {
			dn++
		}
	}

	var side models.Direction
	var votes int
	switch {
	case up >= c.RequiredVotes && up > dn:
		side, votes = models.Buy, up
	case dn >= c.RequiredVotes && dn > up:
		side, votes = models.Sell, dn
	default:
		return models.Decision{}
	}

	conf := clamp(0.70+0.05*float64(votes-c.RequiredVotes), c.MinConf, c.MaxConf)
	return models.Decision{Direction: side, Confidence: conf, Votes: votes}
}
