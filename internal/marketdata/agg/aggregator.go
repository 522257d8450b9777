// Package agg folds ticks into bars.
package agg

import (
	"errors"

	"scalper/internal/model"
)

// ErrNoOpenBar is returned when ticks arrive before Open or Close is called twice.
var ErrNoOpenBar = errors.New("agg: no open bar")

// Builder accumulates ticks into one bar at a time.
// It is synchronous: the caller decides where a bar starts and ends.
type Builder struct {
	bar   model.Bar
	ticks int
	open  bool

	// OnDroppedTick is called for ticks that arrive with no open bar (optional).
	OnDroppedTick func(model.Tick)
}

// New creates an idle Builder.
func New() *Builder {
	return &Builder{}
}

// Open starts a new bar at price. baseVolume seeds the bar's volume for
// feeds that report volume per bar rather than per tick.
func (b *Builder) Open(index int, price, baseVolume float64) {
	b.bar = model.Bar{
		Index:  index,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: baseVolume,
	}
	b.ticks = 0
	b.open = true
}

// Add incorporates a single tick into the open bar.
func (b *Builder) Add(tick model.Tick) error {
	if !b.open {
		if b.OnDroppedTick != nil {
			b.OnDroppedTick(tick)
		}
		return ErrNoOpenBar
	}
	c := &b.bar
	if tick.Price > c.High {
		c.High = tick.Price
	}
	if tick.Price < c.Low {
		c.Low = tick.Price
	}
	c.Close = tick.Price
	c.Volume += tick.Qty
	b.ticks++
	return nil
}

// Ticks returns how many ticks the open bar has absorbed.
func (b *Builder) Ticks() int { return b.ticks }

// Close finalizes the open bar. The bar-local reference price is the
// typical price (high+low+close)/3.
func (b *Builder) Close() (model.Bar, error) {
	if !b.open {
		return model.Bar{}, ErrNoOpenBar
	}
	b.open = false
	c := b.bar
	c.VWAP = (c.High + c.Low + c.Close) / 3.0
	return c, nil
}
