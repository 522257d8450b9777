// Package strategy turns a stream of bars into trading signals.
//
// A Strategy owns its indicators and any rolling trackers. It is fed every bar
// exactly once, in order, and returns a fresh Signal for each one. Strategies
// hold no process-wide state, so independent instances can run side by side.
package strategy

import "scalper/internal/model"

// Strategy is the interface that all signal engines must implement.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Evaluate updates internal state with the bar and returns the signal for it.
	Evaluate(bar model.Bar) model.Signal

	// Snapshot returns the indicator values after the most recent Evaluate.
	Snapshot() model.IndicatorSnapshot
}

// Decide applies the score threshold and the trend gate.
// A score past the threshold against the trend never fires.
func Decide(score, minScore float64, uptrend, downtrend bool) model.Action {
	switch {
	case score >= minScore && uptrend:
		return model.ActionBuy
	case score <= -minScore && downtrend:
		return model.ActionSell
	default:
		return model.ActionNone
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
