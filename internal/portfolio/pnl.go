package portfolio

import (
	"github.com/shopspring/decimal"

	"scalper/internal/model"
)

// Contract describes the traded instrument.
type Contract struct {
	Symbol     string  `json:"symbol"`
	TickSize   float64 `json:"tick_size"`
	PointValue float64 `json:"point_value"` // dollars per 1.0 price move
	Commission float64 `json:"commission"`  // round trip, dollars
}

// DefaultContract returns the E-mini S&P 500 (ES) contract terms.
func DefaultContract() Contract {
	return Contract{Symbol: "ES", TickSize: 0.25, PointValue: 50, Commission: 1.70}
}

// TickValue returns the dollar value of one tick.
func (c Contract) TickValue() float64 {
	return decimal.NewFromFloat(c.TickSize).Mul(decimal.NewFromFloat(c.PointValue)).InexactFloat64()
}

// SnapToTick rounds price to the nearest multiple of tick, halves away from zero.
func SnapToTick(price, tick float64) float64 {
	t := decimal.NewFromFloat(tick)
	return decimal.NewFromFloat(price).Div(t).Round(0).Mul(t).InexactFloat64()
}

// PnL returns realized dollars for a round trip of one contract, net of commission.
func (c Contract) PnL(side model.Side, entry, exit float64) float64 {
	points := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(entry))
	if side == model.SideShort {
		points = points.Neg()
	}
	return points.
		Mul(decimal.NewFromFloat(c.PointValue)).
		Sub(decimal.NewFromFloat(c.Commission)).
		InexactFloat64()
}
