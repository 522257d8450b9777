package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper/internal/model"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleRun(id string, started time.Time) (RunRecord, []model.Bar, []model.Trade) {
	bars := []model.Bar{
		{Index: 1, Open: 5250, High: 5251, Low: 5249.5, Close: 5250.75, Volume: 180.5, VWAP: 5250.4167},
		{Index: 2, Open: 5250.75, High: 5252, Low: 5250.5, Close: 5251.5, Volume: 240, VWAP: 5251.3333},
		{Index: 3, Open: 5251.5, High: 5251.75, Low: 5248, Close: 5248.25, Volume: 410, VWAP: 5249.3333},
	}
	trades := []model.Trade{
		{EntryBar: 1, ExitBar: 2, Side: model.SideLong, EntryPrice: 5250.75, ExitPrice: 5251.5, PnL: 35.8, Reason: model.ExitTakeProfit},
		{EntryBar: 2, ExitBar: 3, Side: model.SideShort, EntryPrice: 5251.5, ExitPrice: 5248.25, PnL: 160.8, Reason: model.ExitEODFlatten},
	}
	run := RunRecord{
		RunID:         id,
		StartedAt:     started,
		FinishedAt:    started.Add(time.Second),
		BarsRequested: 3,
		BarsProcessed: 3,
		Trades:        len(trades),
		NetPnL:        196.6,
		Config:        `{"bars":3}`,
	}
	return run, bars, trades
}

func TestJournal_SaveAndReadBack(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	run, bars, trades := sampleRun("run-a", started)

	require.NoError(t, j.SaveRun(ctx, run, bars, trades))

	gotBars, err := j.ReadBars(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, bars, gotBars)

	gotTrades, err := j.ReadTrades(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, trades, gotTrades)

	gotRun, err := j.Run(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, run, gotRun)
}

func TestJournal_SaveReplacesExistingRun(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	run, bars, trades := sampleRun("run-a", time.Now().UTC().Truncate(time.Millisecond))

	require.NoError(t, j.SaveRun(ctx, run, bars, trades))
	run.Killed = true
	run.KillReason = "5 consecutive losses"
	require.NoError(t, j.SaveRun(ctx, run, bars[:2], trades[:1]))

	gotBars, err := j.ReadBars(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, gotBars, 2)

	gotRun, err := j.Run(ctx, "run-a")
	require.NoError(t, err)
	assert.True(t, gotRun.Killed)
	assert.Equal(t, "5 consecutive losses", gotRun.KillReason)
}

func TestJournal_LatestAndList(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	_, err := j.LatestRunID(ctx)
	assert.ErrorIs(t, err, ErrRunNotFound)

	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		run, bars, trades := sampleRun(id, base.Add(offsets[i]))
		require.NoError(t, j.SaveRun(ctx, run, bars, trades))
	}

	latest, err := j.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newest", latest)

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{runs[0].RunID, runs[1].RunID, runs[2].RunID})
}

func TestJournal_UnknownRun(t *testing.T) {
	j := openTemp(t)
	_, err := j.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	bars, err := j.ReadBars(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, bars)
}
