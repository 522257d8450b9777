// Package sqlite persists finished runs (bars, trades, summary) so they can
// be inspected or replayed through a fresh engine later.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"scalper/internal/model"
)

// ErrRunNotFound is returned when a run ID has no rows.
var ErrRunNotFound = errors.New("sqlite: run not found")

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	BarsRequested int       `json:"bars_requested"`
	BarsProcessed int       `json:"bars_processed"`
	Killed        bool      `json:"killed"`
	KillReason    string    `json:"kill_reason"`
	Trades        int       `json:"trades"`
	NetPnL        float64   `json:"net_pnl"`
	Config        string    `json:"config"` // JSON-encoded run parameters
}

// Journal is the run store.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Open opens (or creates) the journal with WAL mode and schema.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened journal at %s", dbPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id         TEXT    PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			bars_requested INTEGER NOT NULL,
			bars_processed INTEGER NOT NULL,
			killed         INTEGER NOT NULL,
			kill_reason    TEXT,
			trades         INTEGER NOT NULL,
			net_pnl        REAL    NOT NULL,
			config         TEXT
		);

		CREATE TABLE IF NOT EXISTS bars (
			run_id TEXT    NOT NULL,
			idx    INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume REAL    NOT NULL,
			vwap   REAL    NOT NULL,
			PRIMARY KEY (run_id, idx)
		);

		CREATE TABLE IF NOT EXISTS trades (
			run_id    TEXT    NOT NULL,
			seq       INTEGER NOT NULL,
			entry_bar INTEGER NOT NULL,
			exit_bar  INTEGER NOT NULL,
			side      TEXT    NOT NULL,
			entry     REAL    NOT NULL,
			exit      REAL    NOT NULL,
			pnl       REAL    NOT NULL,
			reason    TEXT    NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`)
	return err
}

// SaveRun writes the run summary, its bars and its trades in one transaction.
// Saving the same run ID again replaces it.
func (j *Journal) SaveRun(ctx context.Context, run RunRecord, bars []model.Bar, trades []model.Trade) error {
	start := time.Now()
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM bars WHERE run_id = ?`,
		`DELETE FROM trades WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, run.RunID); err != nil {
			return fmt.Errorf("sqlite clear run: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, started_at, finished_at, bars_requested, bars_processed, killed, kill_reason, trades, net_pnl, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.BarsRequested, run.BarsProcessed,
		run.Killed, run.KillReason, run.Trades, run.NetPnL, run.Config)
	if err != nil {
		return fmt.Errorf("sqlite insert run: %w", err)
	}

	barStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (run_id, idx, open, high, low, close, volume, vwap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare bars: %w", err)
	}
	defer barStmt.Close()
	for _, b := range bars {
		if _, err := barStmt.ExecContext(ctx, run.RunID, b.Index, b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP); err != nil {
			return fmt.Errorf("sqlite insert bar %d: %w", b.Index, err)
		}
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, seq, entry_bar, exit_bar, side, entry, exit, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare trades: %w", err)
	}
	defer tradeStmt.Close()
	for i, t := range trades {
		if _, err := tradeStmt.ExecContext(ctx, run.RunID, i+1, t.EntryBar, t.ExitBar,
			t.Side.String(), t.EntryPrice, t.ExitPrice, t.PnL, t.Reason.String()); err != nil {
			return fmt.Errorf("sqlite insert trade %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	log.Printf("[sqlite] saved run %s: %d bars, %d trades in %v", run.RunID, len(bars), len(trades), time.Since(start))
	return nil
}

// Run reads one run summary.
func (j *Journal) Run(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, bars_requested, bars_processed, killed, kill_reason, trades, net_pnl, config
		FROM runs WHERE run_id = ?
	`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// LatestRunID returns the most recently started run.
func (j *Journal) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := j.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite latest run: %w", err)
	}
	return id, nil
}

// ListRuns returns every run, newest first.
func (j *Journal) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, bars_requested, bars_processed, killed, kill_reason, trades, net_pnl, config
		FROM runs ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r                 RunRecord
		started, finished int64
		reason, cfg       sql.NullString
	)
	err := s.Scan(&r.RunID, &started, &finished, &r.BarsRequested, &r.BarsProcessed,
		&r.Killed, &reason, &r.Trades, &r.NetPnL, &cfg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("sqlite scan run: %w", err)
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	r.FinishedAt = time.UnixMilli(finished).UTC()
	r.KillReason = reason.String
	r.Config = cfg.String
	return r, nil
}

// ReadBars returns a run's bars in index order, ready for replay.
func (j *Journal) ReadBars(ctx context.Context, runID string) ([]model.Bar, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT idx, open, high, low, close, volume, vwap
		FROM bars WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Index, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ReadTrades returns a run's trades in the order they closed.
func (j *Journal) ReadTrades(ctx context.Context, runID string) ([]model.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entry_bar, exit_bar, side, entry, exit, pnl, reason
		FROM trades WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var (
			t            model.Trade
			side, reason string
		)
		if err := rows.Scan(&t.EntryBar, &t.ExitBar, &side, &t.EntryPrice, &t.ExitPrice, &t.PnL, &reason); err != nil {
			return nil, fmt.Errorf("sqlite scan trades: %w", err)
		}
		if err := t.Side.UnmarshalText([]byte(side)); err != nil {
			return nil, fmt.Errorf("sqlite trades: %w", err)
		}
		if err := t.Reason.UnmarshalText([]byte(reason)); err != nil {
			return nil, fmt.Errorf("sqlite trades: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
