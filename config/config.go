// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"scalper/internal/engine"
	"scalper/internal/marketdata/sim"
)

// Prefix is prepended to every environment variable, e.g. SCALPER_BARS.
const Prefix = "SCALPER"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	// Run
	Bars         int           `envconfig:"BARS" default:"1000"`
	Slow         bool          `envconfig:"SLOW" default:"false"`
	PaceDelay    time.Duration `envconfig:"PACE_DELAY" default:"30ms"`
	ValidateBars bool          `envconfig:"VALIDATE_BARS" default:"false"`

	// Market simulator
	Seed          int64   `envconfig:"SEED" default:"42"`
	StartPrice    float64 `envconfig:"START_PRICE" default:"5250"`
	TickSize      float64 `envconfig:"TICK_SIZE" default:"0.25"`
	Volatility    float64 `envconfig:"VOLATILITY" default:"1.1"`
	MeanReversion float64 `envconfig:"MEAN_REVERSION" default:"0.001"`
	TicksPerBar   int     `envconfig:"TICKS_PER_BAR" default:"20"`

	// Contract
	PointValue float64 `envconfig:"POINT_VALUE" default:"50"`
	Commission float64 `envconfig:"COMMISSION" default:"1.70"`

	// Risk limits
	MaxDailyLoss         float64 `envconfig:"MAX_DAILY_LOSS" default:"-500"`
	MaxPerTradeLoss      float64 `envconfig:"MAX_PER_TRADE_LOSS" default:"-150"`
	MaxTrades            int     `envconfig:"MAX_TRADES" default:"50"`
	MaxConsecutiveLosses int     `envconfig:"MAX_CONSECUTIVE_LOSSES" default:"5"`

	// Infrastructure, empty disables
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	SQLitePath    string `envconfig:"SQLITE_PATH"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisStream   string `envconfig:"REDIS_STREAM" default:"scalper:events"`
	MetricsAddr   string `envconfig:"METRICS_ADDR"`
	WSAddr        string `envconfig:"WS_ADDR"`

	// Output
	ReportPath string `envconfig:"REPORT_PATH" default:"results.json"`
	ChartPath  string `envconfig:"CHART_PATH"`

	// Alerts
	WebhookURL     string `envconfig:"WEBHOOK_URL"`
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load reads .env when present, then the SCALPER_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Validate checks ranges the engine relies on.
func (c *Config) Validate() error {
	switch {
	case c.Bars <= 0:
		return fmt.Errorf("%w: bars must be positive, got %d", ErrInvalidConfig, c.Bars)
	case c.TickSize <= 0:
		return fmt.Errorf("%w: tick size must be positive, got %v", ErrInvalidConfig, c.TickSize)
	case c.StartPrice <= 0:
		return fmt.Errorf("%w: start price must be positive, got %v", ErrInvalidConfig, c.StartPrice)
	case c.TicksPerBar <= 0:
		return fmt.Errorf("%w: ticks per bar must be positive, got %d", ErrInvalidConfig, c.TicksPerBar)
	case c.Volatility < 0:
		return fmt.Errorf("%w: volatility must not be negative, got %v", ErrInvalidConfig, c.Volatility)
	case c.MeanReversion < 0 || c.MeanReversion > 1:
		return fmt.Errorf("%w: mean reversion must be in [0,1], got %v", ErrInvalidConfig, c.MeanReversion)
	case c.PointValue <= 0:
		return fmt.Errorf("%w: point value must be positive, got %v", ErrInvalidConfig, c.PointValue)
	case c.Commission < 0:
		return fmt.Errorf("%w: commission must not be negative, got %v", ErrInvalidConfig, c.Commission)
	case c.MaxDailyLoss >= 0:
		return fmt.Errorf("%w: max daily loss must be negative, got %v", ErrInvalidConfig, c.MaxDailyLoss)
	case c.MaxPerTradeLoss >= 0:
		return fmt.Errorf("%w: max per-trade loss must be negative, got %v", ErrInvalidConfig, c.MaxPerTradeLoss)
	case c.MaxTrades <= 0:
		return fmt.Errorf("%w: max trades must be positive, got %d", ErrInvalidConfig, c.MaxTrades)
	case c.MaxConsecutiveLosses <= 0:
		return fmt.Errorf("%w: max consecutive losses must be positive, got %d", ErrInvalidConfig, c.MaxConsecutiveLosses)
	case c.PaceDelay < 0:
		return fmt.Errorf("%w: pace delay must not be negative, got %v", ErrInvalidConfig, c.PaceDelay)
	}
	return nil
}

// EngineConfig maps the settings onto an engine.Config. Pace is only set
// in slow mode.
func (c *Config) EngineConfig() engine.Config {
	ec := engine.DefaultConfig()
	ec.Bars = c.Bars
	ec.ValidateBars = c.ValidateBars
	if c.Slow {
		ec.Pace = c.PaceDelay
	}
	ec.Contract.TickSize = c.TickSize
	ec.Contract.PointValue = c.PointValue
	ec.Contract.Commission = c.Commission
	ec.Risk.MaxDailyLoss = c.MaxDailyLoss
	ec.Risk.MaxPerTradeLoss = c.MaxPerTradeLoss
	ec.Risk.MaxTrades = c.MaxTrades
	ec.Risk.MaxConsecutiveLosses = c.MaxConsecutiveLosses
	return ec
}

// SimParams maps the settings onto simulator parameters for the given seed.
func (c *Config) SimParams(seed int64) sim.Params {
	return sim.Params{
		StartPrice:    c.StartPrice,
		TickSize:      c.TickSize,
		Volatility:    c.Volatility,
		MeanReversion: c.MeanReversion,
		TicksPerBar:   c.TicksPerBar,
		Seed:          seed,
	}
}
