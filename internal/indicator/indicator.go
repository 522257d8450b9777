// Package indicator provides streaming technical indicators over bar data.
//
// Every indicator consumes one bar per Update call and keeps O(1) smoothing
// state, so the order in which bars are fed is part of the result: replaying
// the same bars in a different order, or skipping one, yields different
// values rather than merely delayed ones.
package indicator

import "scalper/internal/model"

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name with its period (e.g. "EMA_9", "RSI_14").
	Name() string

	// Update feeds the next bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current value. Meaningless until Ready reports true.
	Value() float64

	// Ready returns true once the warm-up history has been accumulated.
	Ready() bool
}

func name(kind string, period int) string {
	return kind + "_" + itoa(period)
}

// itoa converts a non-negative int to string without importing strconv.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
