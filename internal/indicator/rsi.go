package indicator

import "scalper/internal/model"

// lossEpsilon is the average loss below which RSI is pinned to 100.
const lossEpsilon = 1e-10

// RSI calculates the Relative Strength Index using Wilder's smoothing method.
// Update is O(1) per bar.
type RSI struct {
	period    int
	count     int
	prevClose float64
	gains     *SMMA
	losses    *SMMA
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
// The value reads 50 until the first full period of changes is seen.
func NewRSI(period int) *RSI {
	return &RSI{
		period:  period,
		gains:   NewSMMA(period),
		losses:  NewSMMA(period),
		current: 50,
	}
}

func (r *RSI) Name() string { return name("RSI", r.period) }

func (r *RSI) Update(bar model.Bar) { r.Add(bar.Close) }

// Add feeds one close price.
func (r *RSI) Add(price float64) {
	r.count++

	if r.count == 1 {
		// First bar: record price, no delta yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	r.gains.Add(gain)
	r.losses.Add(loss)

	if !r.gains.Ready() {
		return
	}

	avgLoss := r.losses.Value()
	if avgLoss < lossEpsilon {
		r.current = 100.0
		return
	}
	rs := r.gains.Value() / avgLoss
	r.current = 100.0 - 100.0/(1.0+rs)
}

func (r *RSI) Value() float64 { return r.current }

// Ready is true strictly after period+1 observations.
func (r *RSI) Ready() bool { return r.count > r.period }
