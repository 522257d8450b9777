// Package portfolio owns the single open position, its exit rules, and the
// session risk circuit breaker.
//
// The Book holds at most one position. On every bar while a position is open
// the Book tracks the best favorable excursion, tightens a trailing stop once
// it is armed, and resolves exits in a fixed priority order. The RiskManager
// books each closed trade and decides whether new entries are allowed.
package portfolio

import (
	"errors"
	"fmt"

	"scalper/internal/model"
)

var (
	// ErrPositionOpen is returned by Open while a position is already held.
	ErrPositionOpen = errors.New("position already open")
	// ErrNoPosition is returned by Close when flat.
	ErrNoPosition = errors.New("no open position")
)

// LifecycleParams controls stop/target placement and exit rules.
type LifecycleParams struct {
	StopATR         float64 `json:"stop_atr"`          // stop distance in ATRs
	TargetATR       float64 `json:"target_atr"`        // target distance in ATRs
	FallbackATR     float64 `json:"fallback_atr"`      // used when ATR is below one tick
	TrailArmTicks   float64 `json:"trail_arm_ticks"`   // excursion that arms the trailing stop
	TrailFraction   float64 `json:"trail_fraction"`    // share of max excursion locked in
	TrailLabelTicks float64 `json:"trail_label_ticks"` // excursion above which a stop exit is TRAILING_STOP
	MaxHoldBars     int     `json:"max_hold_bars"`
}

// DefaultLifecycleParams returns a 1:2 risk/reward setup with a 50% trail.
func DefaultLifecycleParams() LifecycleParams {
	return LifecycleParams{
		StopATR:         1.5,
		TargetATR:       3.0,
		FallbackATR:     2.0,
		TrailArmTicks:   8,
		TrailFraction:   0.5,
		TrailLabelTicks: 6,
		MaxHoldBars:     50,
	}
}

// Book manages the lifecycle of at most one position.
type Book struct {
	contract Contract
	params   LifecycleParams
	pos      model.Position
}

// NewBook creates a flat Book.
func NewBook(contract Contract, params LifecycleParams) *Book {
	return &Book{contract: contract, params: params}
}

// Position returns a copy of the current position. Side is SideNone when flat.
func (b *Book) Position() model.Position { return b.pos }

// IsOpen reports whether a position is held.
func (b *Book) IsOpen() bool { return b.pos.IsOpen() }

// Open enters at the bar close with ATR-based stop and target, both snapped
// to the contract tick.
func (b *Book) Open(side model.Side, bar model.Bar, atr float64) (model.Position, error) {
	if b.pos.IsOpen() {
		return b.pos, ErrPositionOpen
	}
	if side == model.SideNone {
		return b.pos, fmt.Errorf("open position: side %s", side)
	}
	if atr < b.contract.TickSize {
		atr = b.params.FallbackATR
	}

	sign := side.Sign()
	entry := bar.Close
	b.pos = model.Position{
		Side:       side,
		EntryPrice: entry,
		EntryBar:   bar.Index,
		Stop:       SnapToTick(entry-sign*b.params.StopATR*atr, b.contract.TickSize),
		Target:     SnapToTick(entry+sign*b.params.TargetATR*atr, b.contract.TickSize),
	}
	return b.pos, nil
}

// Evaluate updates excursion and trailing stop from the bar close, then
// checks exits in order: stop, target, max hold. It returns ExitNone when the
// position stays open or the book is flat.
func (b *Book) Evaluate(bar model.Bar) model.ExitReason {
	if !b.pos.IsOpen() {
		return model.ExitNone
	}
	p := &b.pos
	price := bar.Close

	if ex := p.Excursion(price, b.contract.TickSize); ex > p.MaxFavorable {
		p.MaxFavorable = ex
	}

	if p.MaxFavorable > b.params.TrailArmTicks {
		trail := p.EntryPrice + p.Side.Sign()*p.MaxFavorable*b.params.TrailFraction*b.contract.TickSize
		if p.Side == model.SideLong && trail > p.Stop {
			p.Stop = trail
		} else if p.Side == model.SideShort && trail < p.Stop {
			p.Stop = trail
		}
	}

	long := p.Side == model.SideLong
	switch {
	case long && price <= p.Stop, !long && price >= p.Stop:
		if p.MaxFavorable > b.params.TrailLabelTicks {
			return model.ExitTrailingStop
		}
		return model.ExitStopLoss
	case long && price >= p.Target, !long && price <= p.Target:
		return model.ExitTakeProfit
	case bar.Index-p.EntryBar > b.params.MaxHoldBars:
		return model.ExitMaxHold
	}
	return model.ExitNone
}

// Close exits at the bar close and returns the trade record.
func (b *Book) Close(bar model.Bar, reason model.ExitReason) (model.Trade, error) {
	if !b.pos.IsOpen() {
		return model.Trade{}, ErrNoPosition
	}
	t := model.Trade{
		EntryBar:   b.pos.EntryBar,
		ExitBar:    bar.Index,
		Side:       b.pos.Side,
		EntryPrice: b.pos.EntryPrice,
		ExitPrice:  bar.Close,
		PnL:        b.contract.PnL(b.pos.Side, b.pos.EntryPrice, bar.Close),
		Reason:     reason,
	}
	b.pos = model.Position{}
	return t, nil
}
