package strategy

import (
	"scalper/internal/indicator"
	"scalper/internal/model"
)

// Weights are the per-component multipliers of the composite score.
type Weights struct {
	RSI      float64 `json:"rsi"`
	EMA      float64 `json:"ema"`
	VWAP     float64 `json:"vwap"`
	Momentum float64 `json:"momentum"`
	Volume   float64 `json:"volume"`
	Trend    float64 `json:"trend"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.RSI + w.EMA + w.VWAP + w.Momentum + w.Volume + w.Trend
}

// ScalperConfig holds indicator periods, weights and thresholds.
type ScalperConfig struct {
	RSIPeriod    int     `json:"rsi_period"`
	FastPeriod   int     `json:"fast_period"`
	SlowPeriod   int     `json:"slow_period"`
	TrendPeriod  int     `json:"trend_period"`
	ATRPeriod    int     `json:"atr_period"`
	VolumeWindow int     `json:"volume_window"`
	MinATR       float64 `json:"min_atr"`     // below this the market is treated as dead
	MinScore     float64 `json:"min_score"`   // |score| needed to act
	SpikeRatio   float64 `json:"spike_ratio"` // volume / average that counts as a spike
	Weights      Weights `json:"weights"`
}

// DefaultScalperConfig returns the RSI(14), EMA(9/21/50), ATR(14) setup.
func DefaultScalperConfig() ScalperConfig {
	return ScalperConfig{
		RSIPeriod:    14,
		FastPeriod:   9,
		SlowPeriod:   21,
		TrendPeriod:  50,
		ATRPeriod:    14,
		VolumeWindow: 20,
		MinATR:       0.50,
		MinScore:     0.50,
		SpikeRatio:   1.5,
		Weights: Weights{
			RSI:      0.20,
			EMA:      0.25,
			VWAP:     0.15,
			Momentum: 0.15,
			Volume:   0.10,
			Trend:    0.15,
		},
	}
}

// Reason tags attached to signals.
const (
	TagRSIOversold   = "RSI_oversold"
	TagRSIOverbought = "RSI_overbought"
	TagEMACrossUp    = "EMA_cross_up"
	TagEMACrossDown  = "EMA_cross_down"
	TagAboveVWAP     = "above_VWAP"
	TagBelowVWAP     = "below_VWAP"
	TagVolumeSpike   = "VOL_spike"
	TagUptrend       = "UPTREND"
	TagDowntrend     = "DOWNTREND"
)

// Scalper is the multi-indicator weighted signal engine.
//
// Each bar updates RSI, fast/slow/trend EMAs, VWAP, ATR and the rolling
// volume average. Until every indicator is warm, or while ATR sits below
// MinATR, the signal is NONE with a zero score.
type Scalper struct {
	cfg ScalperConfig

	rsi   *indicator.RSI
	fast  *indicator.EMA
	slow  *indicator.EMA
	trend *indicator.EMA
	vwap  *indicator.VWAP
	atr   *indicator.ATR
	vol   *volumeTracker

	// fast/slow pair from the last bar that passed the readiness gate
	prevFast float64
	prevSlow float64

	last model.IndicatorSnapshot
}

// NewScalper creates a signal engine with the given configuration.
func NewScalper(cfg ScalperConfig) *Scalper {
	return &Scalper{
		cfg:   cfg,
		rsi:   indicator.NewRSI(cfg.RSIPeriod),
		fast:  indicator.NewEMA(cfg.FastPeriod),
		slow:  indicator.NewEMA(cfg.SlowPeriod),
		trend: indicator.NewEMA(cfg.TrendPeriod),
		vwap:  indicator.NewVWAP(),
		atr:   indicator.NewATR(cfg.ATRPeriod),
		vol:   newVolumeTracker(cfg.VolumeWindow),
	}
}

func (s *Scalper) Name() string { return "Scalper" }

// Snapshot returns the indicator values after the last Evaluate.
func (s *Scalper) Snapshot() model.IndicatorSnapshot { return s.last }

// Ready reports whether every indicator has finished warming up.
func (s *Scalper) Ready() bool {
	return s.rsi.Ready() && s.fast.Ready() && s.slow.Ready() && s.atr.Ready() && s.trend.Ready()
}

// Evaluate feeds the bar to every indicator and scores it.
func (s *Scalper) Evaluate(bar model.Bar) model.Signal {
	for _, ind := range [...]indicator.Indicator{s.rsi, s.fast, s.slow, s.trend, s.vwap, s.atr} {
		ind.Update(bar)
	}
	s.vol.add(bar.Volume)

	s.last = model.IndicatorSnapshot{
		Index:    bar.Index,
		Close:    bar.Close,
		RSI:      s.rsi.Value(),
		EMAFast:  s.fast.Value(),
		EMASlow:  s.slow.Value(),
		EMATrend: s.trend.Value(),
		VWAP:     s.vwap.Value(),
		ATR:      s.atr.Value(),
	}

	if !s.Ready() || s.atr.Value() < s.cfg.MinATR {
		return model.Signal{Action: model.ActionNone}
	}

	w := s.cfg.Weights
	atr := s.atr.Value()
	var (
		score   float64
		reasons []string
	)

	// RSI
	rs := RSIScore(s.rsi.Value())
	score += w.RSI * rs
	if rs > 0.3 {
		reasons = append(reasons, TagRSIOversold)
	} else if rs < -0.3 {
		reasons = append(reasons, TagRSIOverbought)
	}

	// EMA cross
	ef, es := s.fast.Value(), s.slow.Value()
	var emaScore float64
	if s.prevFast > 0 {
		crossUp := s.prevFast <= s.prevSlow && ef > es
		crossDown := s.prevFast >= s.prevSlow && ef < es
		switch {
		case crossUp:
			emaScore = 1
			reasons = append(reasons, TagEMACrossUp)
		case crossDown:
			emaScore = -1
			reasons = append(reasons, TagEMACrossDown)
		case ef > es:
			emaScore = 0.3
		default:
			emaScore = -0.3
		}
	}
	s.prevFast, s.prevSlow = ef, es
	score += w.EMA * emaScore

	// VWAP distance
	if s.vwap.Ready() && atr > 0 {
		vs := clamp((bar.Close-s.vwap.Value())/atr*0.5, -1, 1)
		score += w.VWAP * vs
		if vs > 0.4 {
			reasons = append(reasons, TagAboveVWAP)
		} else if vs < -0.4 {
			reasons = append(reasons, TagBelowVWAP)
		}
	}

	// Momentum
	div := 1.0
	if s.atr.Ready() {
		div = atr
	}
	score += w.Momentum * clamp((bar.Close-bar.Open)/div, -1, 1)

	// Volume spike
	if s.vol.spike(bar.Volume, s.cfg.SpikeRatio) {
		if bar.Bullish() {
			score += w.Volume
		} else {
			score -= w.Volume
		}
		reasons = append(reasons, TagVolumeSpike)
	}

	// Trend
	ema50 := s.trend.Value()
	if bar.Close > ema50 {
		score += w.Trend * 0.8
		reasons = append(reasons, TagUptrend)
	} else {
		score -= w.Trend * 0.8
		reasons = append(reasons, TagDowntrend)
	}

	uptrend := bar.Close > ema50 && ef > ema50
	downtrend := bar.Close < ema50 && ef < ema50

	return model.Signal{
		Action:  Decide(score, s.cfg.MinScore, uptrend, downtrend),
		Score:   score,
		Reasons: reasons,
	}
}

// RSIScore maps an RSI reading to its sub-score.
func RSIScore(rsi float64) float64 {
	switch {
	case rsi < 30:
		return 0.9
	case rsi < 40:
		return 0.4
	case rsi > 70:
		return -0.9
	case rsi > 60:
		return -0.4
	default:
		return 0
	}
}
