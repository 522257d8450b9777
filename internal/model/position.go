package model

// Position is the single open position held by the engine.
// The zero value (Side == SideNone) means flat.
type Position struct {
	Side         Side    `json:"side"`
	EntryPrice   float64 `json:"entry_price"`
	EntryBar     int     `json:"entry_bar"`
	Stop         float64 `json:"stop"`
	Target       float64 `json:"target"`
	MaxFavorable float64 `json:"max_favorable"` // best excursion since entry, in ticks
}

// IsOpen reports whether the position holds a side.
func (p *Position) IsOpen() bool { return p.Side != SideNone }

// Excursion returns the move from entry to price in the position's favor, in ticks.
func (p *Position) Excursion(price, tickSize float64) float64 {
	return p.Side.Sign() * (price - p.EntryPrice) / tickSize
}
