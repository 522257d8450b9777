// Package replay feeds previously recorded bars back through the engine,
// in their original order, for backtesting.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scalper/internal/model"
)

// ErrOutOfOrder is returned when a recorded bar index does not increase.
var ErrOutOfOrder = errors.New("replay: bar index not increasing")

// BarSource loads the bars of a recorded run.
type BarSource interface {
	ReadBars(ctx context.Context, runID string) ([]model.Bar, error)
}

// Feed replays a fixed slice of bars. It implements model.Feed.
type Feed struct {
	bars []model.Bar
	pos  int
	last int
}

// New creates a Feed over bars. The slice is not copied.
func New(bars []model.Bar) *Feed {
	return &Feed{bars: bars}
}

// FromRun loads a recorded run's bars from src.
func FromRun(ctx context.Context, src BarSource, runID string) (*Feed, error) {
	bars, err := src.ReadBars(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay load %s: %w", runID, err)
	}
	if len(bars) == 0 {
		log.Printf("[replay] run %s has no bars", runID)
	} else {
		log.Printf("[replay] loaded %d bars from run %s", len(bars), runID)
	}
	return New(bars), nil
}

// NextBar returns the next recorded bar. The requested index is ignored:
// recorded bars keep their own indices so results line up with the original run.
func (f *Feed) NextBar(int) (model.Bar, error) {
	if f.pos >= len(f.bars) {
		return model.Bar{}, model.ErrFeedExhausted
	}
	b := f.bars[f.pos]
	if f.pos > 0 && b.Index <= f.last {
		return model.Bar{}, fmt.Errorf("%w: %d after %d", ErrOutOfOrder, b.Index, f.last)
	}
	f.pos++
	f.last = b.Index
	return b, nil
}

// Len returns the number of bars in the feed.
func (f *Feed) Len() int { return len(f.bars) }

// Remaining returns how many bars have not been served yet.
func (f *Feed) Remaining() int { return len(f.bars) - f.pos }
