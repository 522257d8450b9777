package model

// Trade is the immutable record of a closed position.
type Trade struct {
	EntryBar   int        `json:"entry_bar"`
	ExitBar    int        `json:"exit_bar"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry"`
	ExitPrice  float64    `json:"exit"`
	PnL        float64    `json:"pnl"` // dollars, after commission
	Reason     ExitReason `json:"reason"`
}

// Win reports whether the trade counts as a winner. Breakeven counts as a win.
func (t *Trade) Win() bool { return t.PnL >= 0 }

// EquityPoint is the cumulative realized P&L right after a trade closed.
type EquityPoint struct {
	Bar int     `json:"bar"`
	PnL float64 `json:"pnl"`
}
