// cmd/scalpsim runs the scalping engine against the market simulator and
// reports the result.
//
// Usage:
//
//	go run ./cmd/scalpsim --bars=1000 --slow --chart=chart.html
//	go run ./cmd/scalpsim --batch=8 --seed=100
//
// Every flag falls back to its SCALPER_* environment variable (see config).
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"scalper/config"
	"scalper/internal/engine"
	"scalper/internal/gateway"
	"scalper/internal/logger"
	"scalper/internal/marketdata/sim"
	"scalper/internal/metrics"
	"scalper/internal/model"
	"scalper/internal/notification"
	"scalper/internal/report"
	redisstore "scalper/internal/store/redis"
	sqlitestore "scalper/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[scalpsim] %v", err)
	}

	flag.IntVar(&cfg.Bars, "bars", cfg.Bars, "Number of bars to simulate")
	flag.BoolVar(&cfg.Slow, "slow", cfg.Slow, "Pace bars by the configured delay")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Simulator seed")
	flag.BoolVar(&cfg.ValidateBars, "validate", cfg.ValidateBars, "Reject malformed bars")
	flag.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "results.json path (empty = skip)")
	flag.StringVar(&cfg.ChartPath, "chart", cfg.ChartPath, "HTML chart path (empty = skip)")
	flag.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "SQLite journal path (empty = skip)")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the event stream (empty = skip)")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Metrics/health listen address (empty = skip)")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "Websocket gateway listen address (empty = skip)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	batch := flag.Int("batch", 1, "Run N independent simulations with seeds seed..seed+N-1")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[scalpsim] %v", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[scalpsim] %v", err)
	}
	lg := logger.Init("scalpsim", level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *batch > 1 {
		err = runBatch(ctx, cfg, *batch, lg)
	} else {
		err = runSingle(ctx, cfg, lg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[scalpsim] %v", err)
	}
}

func runSingle(ctx context.Context, cfg *config.Config, lg *slog.Logger) error {
	runID := logger.NewRunID()
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus(runID)

	var sinks []model.EventSink

	// ---- SQLite journal ----
	var journal *sqlitestore.Journal
	if cfg.SQLitePath != "" {
		j, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer j.Close()
		journal = j
		health.EnableSQLite()
		health.CheckSQLite(ctx, j.DB())
	}

	// ---- Redis event stream ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		health.EnableRedis()
		p, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.RedisStream,
		}, prom)
		if err != nil {
			log.Printf("[scalpsim] WARNING: redis init failed: %v (continuing without redis)", err)
		} else {
			defer p.Close()
			publisher = p
			sinks = append(sinks, p)
			health.CheckRedis(ctx, p.Client())
		}
	}

	// ---- Websocket gateway ----
	var hub *gateway.Hub
	if cfg.WSAddr != "" {
		hub = gateway.NewHub(prom)
		sinks = append(sinks, hub)
	}

	// ---- Alerts ----
	notifier := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		notifier = append(notifier, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = append(notifier, notification.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
	}

	g, gctx := errgroup.WithContext(ctx)

	var servers []func(context.Context) error
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, health, nil)
		g.Go(srv.ListenAndServe)
		servers = append(servers, srv.Stop)
	}
	if hub != nil {
		srv := &http.Server{Addr: cfg.WSAddr, Handler: hub.Handler()}
		g.Go(func() error {
			log.Printf("[gateway] listening on %s", cfg.WSAddr)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		servers = append(servers, func(ctx context.Context) error {
			hub.Close()
			return srv.Shutdown(ctx)
		})
	}

	// ---- Periodic liveness checks ----
	var sqlDB *sql.DB
	if journal != nil {
		sqlDB = journal.DB()
	}
	if publisher != nil {
		health.StartLivenessChecker(gctx, publisher.Client(), sqlDB, 10*time.Second)
	} else if sqlDB != nil {
		health.StartLivenessChecker(gctx, nil, sqlDB, 10*time.Second)
	}

	eng := engine.New(cfg.EngineConfig(), sim.New(cfg.SimParams(cfg.Seed)),
		engine.WithRunID(runID),
		engine.WithSinks(sinks...),
		engine.WithMetrics(prom),
		engine.WithHealth(health),
		engine.WithNotifier(notifier),
		engine.WithLogger(lg),
	)

	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, stop := range servers {
				if err := stop(shutdownCtx); err != nil {
					log.Printf("[scalpsim] shutdown: %v", err)
				}
			}
		}()

		res, runErr := eng.Run(gctx)
		if res == nil {
			return runErr
		}
		if err := finish(context.WithoutCancel(ctx), cfg, res, journal); err != nil {
			return err
		}
		return runErr
	})

	return g.Wait()
}

// finish prints, exports and journals a completed run.
func finish(ctx context.Context, cfg *config.Config, res *engine.Result, journal *sqlitestore.Journal) error {
	report.PrintSummary(os.Stdout, res)

	if cfg.ReportPath != "" {
		if err := report.SaveJSON(cfg.ReportPath, res); err != nil {
			return err
		}
		log.Printf("[scalpsim] JSON exported: %s", cfg.ReportPath)
	}
	if cfg.ChartPath != "" {
		if err := report.SaveChart(cfg.ChartPath, res); err != nil {
			return err
		}
		log.Printf("[scalpsim] chart written: %s", cfg.ChartPath)
	}
	if journal != nil {
		if err := saveRun(ctx, journal, cfg, res); err != nil {
			return err
		}
		log.Printf("[scalpsim] run %s journaled to %s", res.RunID, cfg.SQLitePath)
	}
	return nil
}

func saveRun(ctx context.Context, journal *sqlitestore.Journal, cfg *config.Config, res *engine.Result) error {
	params, err := json.Marshal(struct {
		Engine engine.Config `json:"engine"`
		Sim    sim.Params    `json:"sim"`
	}{cfg.EngineConfig(), cfg.SimParams(cfg.Seed)})
	if err != nil {
		return fmt.Errorf("marshal run config: %w", err)
	}
	stats := report.Summarize(res.Trades)
	return journal.SaveRun(ctx, sqlitestore.RunRecord{
		RunID:         res.RunID,
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
		BarsRequested: res.BarsRequested,
		BarsProcessed: res.BarsProcessed,
		Killed:        res.Killed,
		KillReason:    res.KillReason,
		Trades:        stats.Trades,
		NetPnL:        stats.NetPnL,
		Config:        string(params),
	}, res.History, res.Trades)
}

// runBatch runs n isolated simulations in parallel and prints one line
// per run. Reporting sinks are not attached in batch mode.
func runBatch(ctx context.Context, cfg *config.Config, n int, lg *slog.Logger) error {
	ecfg := cfg.EngineConfig()
	ecfg.Pace = 0

	results, err := engine.RunBatch(ctx, n, func(i int) (*engine.Engine, error) {
		feed := sim.New(cfg.SimParams(cfg.Seed + int64(i)))
		return engine.New(ecfg, feed, engine.WithLogger(lg)), nil
	})
	if err != nil {
		return err
	}

	var journal *sqlitestore.Journal
	if cfg.SQLitePath != "" {
		journal, err = sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tRUN\tBARS\tTRADES\tWIN%\tNET\tPF\tMAXDD\tKILLED\tVERDICT")
	for i, res := range results {
		s := report.Summarize(res.Trades)
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.1f\t%.2f\t%.2f\t%.2f\t%v\t%s\n",
			cfg.Seed+int64(i), res.RunID, res.BarsProcessed, s.Trades, s.WinRate,
			s.NetPnL, s.ProfitFactor, s.MaxDrawdown, res.Killed, s.Verdict())
		if journal != nil {
			runCfg := *cfg
			runCfg.Seed = cfg.Seed + int64(i)
			if err := saveRun(ctx, journal, &runCfg, res); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}
