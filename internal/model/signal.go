package model

import "strings"

// Signal is the per-bar output of a strategy.
type Signal struct {
	Action  Action   `json:"action"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Reason joins the contributing tags for display.
func (s *Signal) Reason() string { return strings.Join(s.Reasons, " ") }

// IndicatorSnapshot is the per-bar diagnostic record of every indicator value.
type IndicatorSnapshot struct {
	Index    int     `json:"index"`
	Close    float64 `json:"close"`
	RSI      float64 `json:"rsi"`
	EMAFast  float64 `json:"ema_fast"`
	EMASlow  float64 `json:"ema_slow"`
	EMATrend float64 `json:"ema_trend"`
	VWAP     float64 `json:"vwap"`
	ATR      float64 `json:"atr"`
}
