// cmd/backtest replays the bars of a journaled run from SQLite through a
// fresh engine, so a run can be reproduced or re-scored after a parameter
// change without the simulator.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/scalper.db              # latest run
//	go run ./cmd/backtest --db=data/scalper.db --run=<id> --report=replay.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"scalper/config"
	"scalper/internal/engine"
	"scalper/internal/logger"
	"scalper/internal/marketdata/replay"
	"scalper/internal/report"
	sqlitestore "scalper/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	dbPath := flag.String("db", orDefault(cfg.SQLitePath, "data/scalper.db"), "Path to SQLite journal")
	runID := flag.String("run", "", "Run ID to replay (default: latest)")
	list := flag.Bool("list", false, "List journaled runs and exit")
	reportPath := flag.String("report", "", "results.json path for the replay (empty = skip)")
	chartPath := flag.String("chart", "", "HTML chart path for the replay (empty = skip)")
	flag.StringVar(&cfg.LogLevel, "log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	lg := logger.Init("backtest", level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := sqlitestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	defer journal.Close()

	if *list {
		if err := listRuns(ctx, journal); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
		return
	}

	if *runID == "" {
		*runID, err = journal.LatestRunID(ctx)
		if err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	}
	stored, err := journal.Run(ctx, *runID)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	feed, err := replay.FromRun(ctx, journal, *runID)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	if feed.Len() == 0 {
		log.Fatalf("[backtest] run %s has no bars to replay", *runID)
	}

	ecfg := cfg.EngineConfig()
	ecfg.Bars = feed.Len()
	ecfg.Pace = 0

	eng := engine.New(ecfg, feed, engine.WithLogger(lg))
	res, err := eng.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[backtest] replay failed: %v", err)
	}

	report.PrintSummary(os.Stdout, res)

	stats := report.Summarize(res.Trades)
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║             REPLAY vs STORED             ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Run:      %-29s ║\n", stored.RunID)
	fmt.Printf("║  Bars:     %-12d / %-14d ║\n", res.BarsProcessed, stored.BarsProcessed)
	fmt.Printf("║  Trades:   %-12d / %-14d ║\n", stats.Trades, stored.Trades)
	fmt.Printf("║  Net P&L:  %-12.2f / %-14.2f ║\n", stats.NetPnL, stored.NetPnL)
	fmt.Println("╚══════════════════════════════════════════╝")

	if *reportPath != "" {
		if err := report.SaveJSON(*reportPath, res); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	}
	if *chartPath != "" {
		if err := report.SaveChart(*chartPath, res); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	}
}

func listRuns(ctx context.Context, journal *sqlitestore.Journal) error {
	runs, err := journal.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		killed := ""
		if r.Killed {
			killed = " KILLED: " + r.KillReason
		}
		fmt.Printf("%s  %s  bars=%d trades=%d net=%.2f%s\n",
			r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.BarsProcessed, r.Trades, r.NetPnL, killed)
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
