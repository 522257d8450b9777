package model

import "context"

// ── Ports ──
// These interfaces decouple the decision pipeline from concrete feeds and
// reporting sinks (simulator, SQLite replay, Redis, WebSocket).

// Feed produces bars, one per call, in strictly increasing index order.
type Feed interface {
	// NextBar returns the bar for the given 1-based index.
	// Returns ErrFeedExhausted when no more bars are available.
	NextBar(index int) (Bar, error)
}

// EventType names what an Event carries.
type EventType string

const (
	EventBar   EventType = "bar"
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
	EventKill  EventType = "kill"
)

// Event is emitted by the engine to every EventSink. Only the fields relevant
// to Type are set.
type Event struct {
	Type     EventType          `json:"type"`
	RunID    string             `json:"run_id"`
	Bar      *Bar               `json:"bar,omitempty"`
	Snapshot *IndicatorSnapshot `json:"snapshot,omitempty"`
	Signal   *Signal            `json:"signal,omitempty"`
	Position *Position          `json:"position,omitempty"`
	Trade    *Trade             `json:"trade,omitempty"`
	DailyPnL float64            `json:"daily_pnl"`
	Message  string             `json:"message,omitempty"`
}

// EventSink receives engine events. Implementations must not block for long;
// the engine processes bars synchronously.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}
