// Package engine drives the per-bar decision loop.
//
// For every bar the Engine asks the strategy for a signal, resolves exits on
// the open position, then considers a new entry subject to the risk manager.
// A bar is fully processed before the next one is requested. The loop stops
// at the bar budget, when the feed runs dry, when the risk circuit breaker
// trips, or when the context is cancelled.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scalper/internal/logger"
	"scalper/internal/metrics"
	"scalper/internal/model"
	"scalper/internal/notification"
	"scalper/internal/portfolio"
	"scalper/internal/strategy"
)

// Config holds the run parameters.
type Config struct {
	Bars         int                       `json:"bars"`
	Pace         time.Duration             `json:"pace"` // delay between bars, 0 = none
	ValidateBars bool                      `json:"validate_bars"`
	Contract     portfolio.Contract        `json:"contract"`
	Lifecycle    portfolio.LifecycleParams `json:"lifecycle"`
	Risk         portfolio.RiskLimits      `json:"risk"`
	Scalper      strategy.ScalperConfig    `json:"scalper"`
}

// DefaultConfig returns a 1000-bar ES run with default limits.
func DefaultConfig() Config {
	return Config{
		Bars:      1000,
		Contract:  portfolio.DefaultContract(),
		Lifecycle: portfolio.DefaultLifecycleParams(),
		Risk:      portfolio.DefaultRiskLimits(),
		Scalper:   strategy.DefaultScalperConfig(),
	}
}

// Result is everything a run produced, for reporting and persistence.
type Result struct {
	RunID         string                    `json:"run_id"`
	BarsRequested int                       `json:"bars_requested"`
	BarsProcessed int                       `json:"bars_processed"`
	Killed        bool                      `json:"killed"`
	KillReason    string                    `json:"kill_reason,omitempty"`
	Trades        []model.Trade             `json:"trades"`
	Equity        []model.EquityPoint       `json:"equity"`
	Bars          []model.IndicatorSnapshot `json:"bars"`
	History       []model.Bar               `json:"history"`
	Risk          portfolio.RiskStatus      `json:"risk"`
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    time.Time                 `json:"finished_at"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithSinks adds reporting sinks that receive every engine event.
func WithSinks(sinks ...model.EventSink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sinks...) }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithHealth reports progress to a /healthz status.
func WithHealth(h *metrics.HealthStatus) Option {
	return func(e *Engine) { e.health = h }
}

// WithNotifier sets where circuit breaker alerts go.
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStrategy replaces the default Scalper built from Config.Scalper.
func WithStrategy(s strategy.Strategy) Option {
	return func(e *Engine) { e.strat = s }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// Engine is the single-instrument, single-position orchestrator.
type Engine struct {
	cfg   Config
	feed  model.Feed
	strat strategy.Strategy
	book  *portfolio.Book
	risk  *portfolio.RiskManager

	sinks    []model.EventSink
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus
	notifier notification.Notifier
	log      *slog.Logger
	runID    string

	res     *Result
	lastBar model.Bar
}

// New creates an Engine reading bars from feed.
func New(cfg Config, feed model.Feed, opts ...Option) *Engine {
	e := &Engine{
		cfg:  cfg,
		feed: feed,
		book: portfolio.NewBook(cfg.Contract, cfg.Lifecycle),
		risk: portfolio.NewRiskManager(cfg.Risk),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strat == nil {
		e.strat = strategy.NewScalper(cfg.Scalper)
	}
	if e.runID == "" {
		e.runID = logger.NewRunID()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.log = e.log.With(slog.String("run_id", e.runID))
	return e
}

// RunID returns the identifier attached to every event and log line.
func (e *Engine) RunID() string { return e.runID }

// Risk exposes the risk manager for status reporting.
func (e *Engine) Risk() *portfolio.RiskManager { return e.risk }

// Run processes up to cfg.Bars bars and returns the accumulated result.
// On cancellation or a feed error the partial result is returned together
// with the error. A tripped circuit breaker is not an error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	ctx = logger.WithRunID(ctx, e.runID)
	e.res = &Result{
		RunID:         e.runID,
		BarsRequested: e.cfg.Bars,
		Trades:        make([]model.Trade, 0, 64),
		Equity:        make([]model.EquityPoint, 0, 64),
		Bars:          make([]model.IndicatorSnapshot, 0, e.cfg.Bars),
		History:       make([]model.Bar, 0, e.cfg.Bars),
		StartedAt:     time.Now(),
	}
	if e.health != nil {
		e.health.SetRunning(true)
		defer e.health.SetRunning(false)
	}
	e.log.Info("run started", "bars", e.cfg.Bars, "strategy", e.strat.Name(), "symbol", e.cfg.Contract.Symbol)

	runErr := e.loop(ctx)
	exhausted := errors.Is(runErr, model.ErrFeedExhausted)
	if exhausted {
		runErr = nil
	}

	if e.book.IsOpen() {
		e.flatten(ctx, runErr != nil || exhausted)
	}

	e.res.Killed = e.risk.Killed()
	e.res.KillReason = e.risk.KillReason()
	e.res.Risk = e.risk.Status()
	e.res.FinishedAt = time.Now()
	e.log.Info("run finished",
		"bars", e.res.BarsProcessed,
		"trades", len(e.res.Trades),
		"daily_pnl", e.risk.DailyPnL(),
		"killed", e.res.Killed,
	)
	return e.res, runErr
}

func (e *Engine) loop(ctx context.Context) error {
	for i := 1; i <= e.cfg.Bars; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		bar, err := e.feed.NextBar(i)
		if errors.Is(err, model.ErrFeedExhausted) {
			e.log.Info("feed exhausted", "bar", i)
			return err
		}
		if err != nil {
			return fmt.Errorf("next bar %d: %w", i, err)
		}
		if e.cfg.ValidateBars {
			if err := model.ValidateBar(bar); err != nil {
				e.metrics.ObserveInvalidBar()
				return err
			}
		}

		e.step(ctx, bar)

		if e.risk.Killed() {
			return nil
		}

		if e.cfg.Pace > 0 {
			t := time.NewTimer(e.cfg.Pace)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil
}

// step runs one bar through signal, exit, entry.
func (e *Engine) step(ctx context.Context, bar model.Bar) {
	start := time.Now()

	sig := e.strat.Evaluate(bar)
	snap := e.strat.Snapshot()
	e.lastBar = bar
	e.res.BarsProcessed++
	e.res.History = append(e.res.History, bar)
	e.res.Bars = append(e.res.Bars, snap)
	e.publish(ctx, model.Event{Type: model.EventBar, Bar: &bar, Snapshot: &snap, Signal: &sig, DailyPnL: e.risk.DailyPnL()})

	if e.book.IsOpen() {
		if reason := e.book.Evaluate(bar); reason != model.ExitNone {
			e.close(ctx, bar, reason)
		}
	}

	if !e.book.IsOpen() && sig.Action != model.ActionNone && e.risk.CanTrade() {
		e.open(ctx, bar, sig, snap.ATR)
	}

	e.metrics.ObserveBar(time.Since(start), sig)
	if e.health != nil {
		e.health.SetLastBar(bar.Index, time.Now())
	}
	e.log.Debug("bar",
		"index", bar.Index,
		"close", bar.Close,
		"rsi", snap.RSI,
		"atr", snap.ATR,
		"action", sig.Action.String(),
		"score", sig.Score,
	)
}

func (e *Engine) open(ctx context.Context, bar model.Bar, sig model.Signal, atr float64) {
	pos, err := e.book.Open(sig.Action.Side(), bar, atr)
	if err != nil {
		e.log.Error("open position", "bar", bar.Index, "error", err)
		return
	}
	e.metrics.ObserveEntry(pos)
	e.log.Info("entry",
		"bar", bar.Index,
		"side", pos.Side.String(),
		"price", pos.EntryPrice,
		"stop", pos.Stop,
		"target", pos.Target,
		"score", sig.Score,
		"reasons", sig.Reason(),
	)
	e.publish(ctx, model.Event{Type: model.EventEntry, Bar: &bar, Signal: &sig, Position: &pos, DailyPnL: e.risk.DailyPnL()})
}

func (e *Engine) close(ctx context.Context, bar model.Bar, reason model.ExitReason) {
	wasKilled := e.risk.Killed()
	trade, err := e.book.Close(bar, reason)
	if err != nil {
		e.log.Error("close position", "bar", bar.Index, "error", err)
		return
	}
	e.risk.Record(trade.PnL)
	daily := e.risk.DailyPnL()

	e.res.Trades = append(e.res.Trades, trade)
	e.res.Equity = append(e.res.Equity, model.EquityPoint{Bar: bar.Index, PnL: daily})
	e.metrics.ObserveExit(trade, daily)
	e.log.Info("exit",
		"bar", bar.Index,
		"side", trade.Side.String(),
		"price", trade.ExitPrice,
		"pnl", trade.PnL,
		"reason", trade.Reason.String(),
		"daily_pnl", daily,
	)
	e.publish(ctx, model.Event{Type: model.EventExit, Bar: &bar, Trade: &trade, DailyPnL: daily})

	if !wasKilled && e.risk.Killed() {
		e.tripped(ctx, bar, daily)
	}
}

// tripped surfaces the circuit breaker to the operator.
func (e *Engine) tripped(ctx context.Context, bar model.Bar, daily float64) {
	reason := e.risk.KillReason()
	e.log.Warn("circuit breaker triggered, trading stopped", "bar", bar.Index, "reason", reason, "daily_pnl", daily)
	e.metrics.ObserveKill()
	if e.health != nil {
		e.health.SetKilled(reason)
	}
	e.publish(ctx, model.Event{Type: model.EventKill, Bar: &bar, DailyPnL: daily, Message: reason})
	if e.notifier != nil {
		if err := e.notifier.Send(ctx, notification.KillAlert(e.runID, reason, bar.Index, daily)); err != nil {
			e.log.Warn("kill alert not delivered", "error", err)
		}
	}
}

// flatten force-closes the open position with EOD_FLATTEN. It prices the
// exit on one extra bar from the feed unless the run was cut short, in which
// case the last processed bar is used.
func (e *Engine) flatten(ctx context.Context, useLast bool) {
	bar := e.lastBar
	if !useLast {
		next, err := e.feed.NextBar(e.cfg.Bars + 1)
		if err == nil {
			bar = next
		} else {
			e.log.Info("no bar after budget, flattening at last close", "error", err)
		}
	}
	// cancellation must not stop the closing trade from being reported
	e.close(context.WithoutCancel(ctx), bar, model.ExitEODFlatten)
}

func (e *Engine) publish(ctx context.Context, ev model.Event) {
	if len(e.sinks) == 0 {
		return
	}
	ev.RunID = e.runID
	for _, s := range e.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			name := fmt.Sprintf("%T", s)
			e.metrics.ObserveSinkError(name)
			e.log.Warn("publish event", "sink", name, "type", string(ev.Type), "error", err)
		}
	}
}
