package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"scalper/internal/engine"
	"scalper/internal/model"
)

func trade(entry, exit int, side model.Side, pnl float64, reason model.ExitReason) model.Trade {
	return model.Trade{EntryBar: entry, ExitBar: exit, Side: side, EntryPrice: 5250, ExitPrice: 5250, PnL: pnl, Reason: reason}
}

func sampleResult() *engine.Result {
	trades := []model.Trade{
		trade(10, 15, model.SideLong, 298.3, model.ExitTakeProfit),
		trade(20, 22, model.SideShort, -151.7, model.ExitStopLoss),
		trade(30, 33, model.SideLong, -101.7, model.ExitStopLoss),
		trade(40, 48, model.SideShort, 48.3, model.ExitTrailingStop),
	}
	res := &engine.Result{RunID: "run-1", BarsRequested: 10, BarsProcessed: 10, Trades: trades}
	var cum float64
	for _, t := range trades {
		cum += t.PnL
		res.Equity = append(res.Equity, model.EquityPoint{Bar: t.ExitBar, PnL: cum})
	}
	for i := 1; i <= 10; i++ {
		res.Bars = append(res.Bars, model.IndicatorSnapshot{
			Index: i, Close: 5250 + float64(i), RSI: 50, EMAFast: 5250, EMASlow: 5249.5, VWAP: 5250.25, ATR: 1.126,
		})
	}
	return res
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResult().Trades)

	assert.Equal(t, 4, s.Trades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 346.6, s.GrossProfit, 1e-9)
	assert.InDelta(t, -253.4, s.GrossLoss, 1e-9)
	assert.InDelta(t, 93.2, s.NetPnL, 1e-9)
	assert.InDelta(t, 346.6/253.4, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 23.3, s.Expectancy, 1e-9)
	assert.InDelta(t, 173.3, s.AvgWin, 1e-9)
	assert.InDelta(t, -126.7, s.AvgLoss, 1e-9)
	assert.InDelta(t, 298.3, s.BestTrade, 1e-9)
	assert.InDelta(t, -151.7, s.WorstTrade, 1e-9)
	// Peak 298.3, trough 44.9.
	assert.InDelta(t, -253.4, s.MaxDrawdown, 1e-9)
	assert.Equal(t, 2, s.Exits[model.ExitStopLoss])
	assert.Equal(t, 1, s.Exits[model.ExitTakeProfit])
	assert.Equal(t, 1, s.Exits[model.ExitTrailingStop])
	assert.Equal(t, VerdictViable, s.Verdict())
}

func TestSummarize_DrawdownFromZero(t *testing.T) {
	s := Summarize([]model.Trade{
		trade(1, 2, model.SideLong, -51.7, model.ExitStopLoss),
		trade(3, 4, model.SideLong, -51.7, model.ExitStopLoss),
	})
	assert.InDelta(t, -103.4, s.MaxDrawdown, 1e-9)
	assert.Zero(t, s.ProfitFactor)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, VerdictReview, s.Verdict())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Trades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.MaxDrawdown)
	assert.Equal(t, VerdictReview, s.Verdict())
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name string
		s    Stats
		want Verdict
	}{
		{"viable", Stats{NetPnL: 100, ProfitFactor: 1.5, GrossLoss: -200, WinRate: 50}, VerdictViable},
		{"no losses", Stats{NetPnL: 100, GrossLoss: 0, WinRate: 100}, VerdictViable},
		{"low win rate", Stats{NetPnL: 100, ProfitFactor: 2, GrossLoss: -100, WinRate: 40}, VerdictOK},
		{"thin edge", Stats{NetPnL: 10, ProfitFactor: 1.1, GrossLoss: -100, WinRate: 60}, VerdictOK},
		{"flat", Stats{NetPnL: 0, WinRate: 100}, VerdictReview},
		{"loss", Stats{NetPnL: -5, ProfitFactor: 0.9, GrossLoss: -50, WinRate: 70}, VerdictReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.Verdict())
		})
	}
}

func TestWriteJSON_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))
	doc := buf.String()

	assert.Equal(t, int64(4), gjson.Get(doc, "stats.trades").Int())
	assert.Equal(t, 50.0, gjson.Get(doc, "stats.win_rate").Float())
	assert.Equal(t, "93.20", gjson.Get(doc, "stats.net_pnl").Raw)
	assert.Equal(t, "50.0", gjson.Get(doc, "stats.win_rate").Raw)
	assert.Equal(t, "-253.40", gjson.Get(doc, "stats.max_drawdown").Raw)

	assert.Equal(t, int64(4), gjson.Get(doc, "trades.#").Int())
	assert.Equal(t, "LONG", gjson.Get(doc, "trades.0.side").String())
	assert.Equal(t, "TAKE_PROFIT", gjson.Get(doc, "trades.0.reason").String())
	assert.Equal(t, int64(15), gjson.Get(doc, "trades.0.exit_bar").Int())

	assert.Equal(t, int64(4), gjson.Get(doc, "equity.#").Int())
	assert.Equal(t, int64(15), gjson.Get(doc, "equity.0.0").Int())
	assert.InDelta(t, 93.2, gjson.Get(doc, "equity.3.1").Float(), 1e-9)

	// 10 bars sampled every 3rd: indices 1, 4, 7, 10.
	bars := gjson.Get(doc, "bars").Array()
	require.Len(t, bars, 4)
	assert.Equal(t, int64(4), bars[1].Get("0").Int())
	assert.Len(t, bars[1].Array(), 7)
	assert.Equal(t, "5254.00", bars[1].Get("1").Raw)
	assert.Equal(t, "1.13", bars[1].Get("6").Raw)
}

func TestWriteJSON_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &engine.Result{RunID: "empty"}))
	doc := buf.String()

	assert.True(t, gjson.Get(doc, "trades").IsArray())
	assert.Zero(t, gjson.Get(doc, "trades.#").Int())
	assert.Equal(t, "0.00", gjson.Get(doc, "stats.profit_factor").Raw)
}

func TestSaveJSONAndChart(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()

	jsonPath := filepath.Join(dir, "results.json")
	require.NoError(t, SaveJSON(jsonPath, res))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, gjson.ValidBytes(raw))

	chartPath := filepath.Join(dir, "chart.html")
	require.NoError(t, SaveChart(chartPath, res))
	html, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")
	assert.Contains(t, string(html), "EMA Fast")
	assert.Contains(t, string(html), "VWAP")
}

func TestRenderChart_NoBars(t *testing.T) {
	err := RenderChart(&bytes.Buffer{}, &engine.Result{RunID: "empty"})
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	res.Killed = true
	res.KillReason = "5 consecutive losses"
	PrintSummary(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "4 total | 2 wins | 2 losses")
	assert.Contains(t, out, "Win Rate:      50.0%")
	assert.Contains(t, out, "Net P&L:       $93.20")
	assert.Contains(t, out, "Stop: 2 | Target: 1 | Trail: 1 | MaxHold: 0 | EOD: 0")
	assert.Contains(t, out, "KILLED (5 consecutive losses)")
	assert.True(t, strings.Contains(out, "VIABLE"))
}

func TestPrintSummary_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &engine.Result{RunID: "empty", BarsRequested: 5, BarsProcessed: 5})
	assert.Contains(t, buf.String(), "No trades executed.")
}
