// Package sim generates synthetic bars from a seeded Brownian walk with
// mean reversion, standing in for a live or historical feed.
package sim

import (
	"math"
	"math/rand"

	"scalper/internal/marketdata/agg"
	"scalper/internal/model"
)

// Params configures the generator.
type Params struct {
	StartPrice    float64 `json:"start_price"`    // also the mean reverted toward
	TickSize      float64 `json:"tick_size"`
	Volatility    float64 `json:"volatility"`     // shock size in ticks per step
	MeanReversion float64 `json:"mean_reversion"` // pull toward StartPrice per step
	TicksPerBar   int     `json:"ticks_per_bar"`
	Seed          int64   `json:"seed"`
}

// DefaultParams returns an ES-like market around 5250.
func DefaultParams() Params {
	return Params{
		StartPrice:    5250,
		TickSize:      0.25,
		Volatility:    1.1,
		MeanReversion: 0.001,
		TicksPerBar:   20,
		Seed:          42,
	}
}

// Simulator is an endless model.Feed. The same Params always yield the same
// bar sequence.
type Simulator struct {
	p     Params
	rng   *rand.Rand
	price float64
	b     *agg.Builder
}

// New creates a Simulator.
func New(p Params) *Simulator {
	return &Simulator{
		p:     p,
		rng:   rand.New(rand.NewSource(p.Seed)),
		price: p.StartPrice,
		b:     agg.New(),
	}
}

// NextBar generates the bar stamped with index. Each call advances the walk
// by TicksPerBar steps regardless of index.
func (s *Simulator) NextBar(index int) (model.Bar, error) {
	volume := 100 + math.Abs(s.rng.NormFloat64())*200
	s.b.Open(index, s.price, volume)

	for i := 0; i < s.p.TicksPerBar; i++ {
		drift := s.p.MeanReversion * (s.p.StartPrice - s.price)
		shock := s.p.Volatility * s.rng.NormFloat64() * s.p.TickSize
		s.price = snap(s.price+drift+shock, s.p.TickSize)
		if err := s.b.Add(model.Tick{Seq: i + 1, Price: s.price}); err != nil {
			return model.Bar{}, err
		}
	}
	return s.b.Close()
}

// Price returns the current walk level.
func (s *Simulator) Price() float64 { return s.price }

func snap(price, tick float64) float64 {
	return math.Round(price/tick) * tick
}
