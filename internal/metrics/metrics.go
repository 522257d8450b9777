// Package metrics exposes Prometheus instrumentation for the scalping engine
// plus a /healthz probe.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scalper/internal/model"
)

// Metrics holds all Prometheus metrics for the decision engine.
type Metrics struct {
	BarsTotal     prometheus.Counter
	BarProcessDur prometheus.Histogram
	InvalidBars   prometheus.Counter

	SignalsTotal *prometheus.CounterVec // labels: action
	EntriesTotal *prometheus.CounterVec // labels: side
	ExitsTotal   *prometheus.CounterVec // labels: reason

	TradePnL     prometheus.Histogram
	DailyPnL     prometheus.Gauge
	OpenPosition prometheus.Gauge // -1=short, 0=flat, 1=long
	KillSwitch   prometheus.Gauge // 0=trading, 1=killed

	// Reporting sinks
	SinkErrors *prometheus.CounterVec // labels: sink
	WSClients  prometheus.Gauge

	// Circuit breaker around the Redis publisher
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_bars_total",
			Help: "Total bars processed by the engine",
		}),
		BarProcessDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_bar_process_duration_seconds",
			Help:    "Time to evaluate one bar (indicators, signal, exits, entry)",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		InvalidBars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_invalid_bars_total",
			Help: "Bars rejected by validation",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_signals_total",
			Help: "Non-NONE signals emitted (by action)",
		}, []string{"action"}),
		EntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_entries_total",
			Help: "Positions opened (by side)",
		}, []string{"side"}),
		ExitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_exits_total",
			Help: "Positions closed (by exit reason)",
		}, []string{"reason"}),

		TradePnL: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scalper_trade_pnl_dollars",
			Help:    "Realized P&L per closed trade, after commission",
			Buckets: []float64{-300, -150, -75, -25, 0, 25, 75, 150, 300},
		}),
		DailyPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_daily_pnl_dollars",
			Help: "Cumulative realized P&L for the session",
		}),
		OpenPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_open_position",
			Help: "Current position side (-1=short, 0=flat, 1=long)",
		}),
		KillSwitch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_kill_switch",
			Help: "Risk circuit breaker state (0=trading, 1=killed)",
		}),

		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scalper_sink_errors_total",
			Help: "Event publish failures (by sink)",
		}, []string{"sink"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_ws_clients",
			Help: "Connected WebSocket clients",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scalper_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scalper_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
	}

	reg.MustRegister(
		m.BarsTotal,
		m.BarProcessDur,
		m.InvalidBars,
		m.SignalsTotal,
		m.EntriesTotal,
		m.ExitsTotal,
		m.TradePnL,
		m.DailyPnL,
		m.OpenPosition,
		m.KillSwitch,
		m.SinkErrors,
		m.WSClients,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// The Observe helpers are safe on a nil *Metrics so callers can run without
// instrumentation.

// ObserveBar records one processed bar and its signal.
func (m *Metrics) ObserveBar(dur time.Duration, sig model.Signal) {
	if m == nil {
		return
	}
	m.BarsTotal.Inc()
	m.BarProcessDur.Observe(dur.Seconds())
	if sig.Action != model.ActionNone {
		m.SignalsTotal.WithLabelValues(sig.Action.String()).Inc()
	}
}

// ObserveInvalidBar counts a rejected bar.
func (m *Metrics) ObserveInvalidBar() {
	if m == nil {
		return
	}
	m.InvalidBars.Inc()
}

// ObserveEntry records a new position.
func (m *Metrics) ObserveEntry(pos model.Position) {
	if m == nil {
		return
	}
	m.EntriesTotal.WithLabelValues(pos.Side.String()).Inc()
	m.OpenPosition.Set(pos.Side.Sign())
}

// ObserveExit records a closed trade and the session P&L after it.
func (m *Metrics) ObserveExit(t model.Trade, dailyPnL float64) {
	if m == nil {
		return
	}
	m.ExitsTotal.WithLabelValues(t.Reason.String()).Inc()
	m.TradePnL.Observe(t.PnL)
	m.DailyPnL.Set(dailyPnL)
	m.OpenPosition.Set(0)
}

// ObserveKill flips the kill switch gauge.
func (m *Metrics) ObserveKill() {
	if m == nil {
		return
	}
	m.KillSwitch.Set(1)
}

// ObserveSinkError counts a failed publish to the named sink.
func (m *Metrics) ObserveSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// ObserveBreaker records a Redis circuit breaker transition. state follows
// the breaker's numbering; a move to open counts as a trip.
func (m *Metrics) ObserveBreaker(state int) {
	if m == nil {
		return
	}
	m.RedisCircuitBreakerState.Set(float64(state))
	if state == 1 {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// SetWSClients sets the connected websocket client gauge.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}
