package indicator

import (
	"math"

	"scalper/internal/model"
)

// ATR calculates Average True Range with Wilder smoothing.
// The first bar only seeds the previous close.
type ATR struct {
	period    int
	count     int
	prevClose float64
	smooth    *SMMA
}

// NewATR creates a new ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{period: period, smooth: NewSMMA(period)}
}

func (a *ATR) Name() string { return name("ATR", a.period) }

func (a *ATR) Update(bar model.Bar) { a.AddHLC(bar.High, bar.Low, bar.Close) }

// AddHLC feeds one high/low/close triple.
func (a *ATR) AddHLC(high, low, close float64) {
	a.count++
	if a.count == 1 {
		a.prevClose = close
		return
	}
	a.smooth.Add(TrueRange(high, low, a.prevClose))
	a.prevClose = close
}

func (a *ATR) Value() float64 { return a.smooth.Value() }

// Ready is true strictly after period+1 observations.
func (a *ATR) Ready() bool { return a.count > a.period }

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
