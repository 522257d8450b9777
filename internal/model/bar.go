package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBar is returned by ValidateBar for bars with non-finite prices,
	// negative volume, or an inverted high/low range.
	ErrInvalidBar = errors.New("invalid bar")

	// ErrFeedExhausted is returned by a Feed that has no more bars to give.
	ErrFeedExhausted = errors.New("feed exhausted")
)

// Bar is one OHLCV sample for a single instrument.
// Prices are in instrument points (ES: 1 point = 4 ticks of 0.25).
type Bar struct {
	Index  int     `json:"index"` // 1-based, strictly increasing within a run
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	VWAP   float64 `json:"vwap"` // bar-local reference price
}

// Bullish reports whether the bar closed above its open.
func (b *Bar) Bullish() bool { return b.Close > b.Open }

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// ValidateBar checks that a bar is usable by the indicator set.
func ValidateBar(b Bar) error {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bar %d has non-finite field", ErrInvalidBar, b.Index)
		}
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: bar %d has negative volume %.2f", ErrInvalidBar, b.Index, b.Volume)
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: bar %d high %.2f below low %.2f", ErrInvalidBar, b.Index, b.High, b.Low)
	}
	return nil
}
