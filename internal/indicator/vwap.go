package indicator

import "scalper/internal/model"

// VWAP is the cumulative volume-weighted average price since the last Reset.
type VWAP struct {
	cumPV   float64
	cumVol  float64
	current float64
}

// NewVWAP creates an empty VWAP accumulator.
func NewVWAP() *VWAP { return &VWAP{} }

func (v *VWAP) Name() string { return "VWAP" }

// Update weights the bar's close by its volume.
func (v *VWAP) Update(bar model.Bar) { v.Add(bar.Close, bar.Volume) }

// Add accumulates one price/volume pair.
func (v *VWAP) Add(price, volume float64) {
	v.cumPV += price * volume
	v.cumVol += volume
	if v.cumVol > 0 {
		v.current = v.cumPV / v.cumVol
	}
}

func (v *VWAP) Value() float64 { return v.current }
func (v *VWAP) Ready() bool    { return v.cumVol > 0 }

// Reset starts a new session.
func (v *VWAP) Reset() {
	v.cumPV = 0
	v.cumVol = 0
	v.current = 0
}
