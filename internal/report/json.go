package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"scalper/internal/engine"
	"scalper/internal/model"
)

// BarSampleEvery is the stride used when sampling bars into the export.
const BarSampleEvery = 3

// fixed marshals a float with a fixed number of decimals.
type fixed struct {
	v    float64
	prec int
}

func f2(v float64) fixed { return fixed{v, 2} }

func (f fixed) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, f.v, 'f', f.prec, 64), nil
}

type statsDoc struct {
	Trades       int   `json:"trades"`
	Wins         int   `json:"wins"`
	Losses       int   `json:"losses"`
	WinRate      fixed `json:"win_rate"`
	NetPnL       fixed `json:"net_pnl"`
	GrossProfit  fixed `json:"gross_profit"`
	GrossLoss    fixed `json:"gross_loss"`
	ProfitFactor fixed `json:"profit_factor"`
	MaxDrawdown  fixed `json:"max_drawdown"`
	Expectancy   fixed `json:"expectancy"`
}

type tradeDoc struct {
	EntryBar int              `json:"entry_bar"`
	ExitBar  int              `json:"exit_bar"`
	Side     model.Side       `json:"side"`
	Entry    fixed            `json:"entry"`
	Exit     fixed            `json:"exit"`
	PnL      fixed            `json:"pnl"`
	Reason   model.ExitReason `json:"reason"`
}

// Document is the results.json layout: stats, trades, the equity curve as
// [bar, pnl] pairs and every third bar as
// [index, close, rsi, ema_fast, ema_slow, vwap, atr].
type Document struct {
	RunID  string          `json:"run_id,omitempty"`
	Stats  statsDoc        `json:"stats"`
	Trades []tradeDoc      `json:"trades"`
	Equity [][]interface{} `json:"equity"`
	Bars   [][]interface{} `json:"bars"`
}

// Build assembles the export document for a run.
func Build(res *engine.Result) Document {
	s := Summarize(res.Trades)
	doc := Document{
		RunID: res.RunID,
		Stats: statsDoc{
			Trades:       s.Trades,
			Wins:         s.Wins,
			Losses:       s.Losses,
			WinRate:      fixed{s.WinRate, 1},
			NetPnL:       f2(s.NetPnL),
			GrossProfit:  f2(s.GrossProfit),
			GrossLoss:    f2(s.GrossLoss),
			ProfitFactor: f2(s.ProfitFactor),
			MaxDrawdown:  f2(s.MaxDrawdown),
			Expectancy:   f2(s.Expectancy),
		},
		Trades: make([]tradeDoc, 0, len(res.Trades)),
		Equity: make([][]interface{}, 0, len(res.Equity)),
		Bars:   make([][]interface{}, 0, len(res.Bars)/BarSampleEvery+1),
	}
	for _, t := range res.Trades {
		doc.Trades = append(doc.Trades, tradeDoc{
			EntryBar: t.EntryBar,
			ExitBar:  t.ExitBar,
			Side:     t.Side,
			Entry:    f2(t.EntryPrice),
			Exit:     f2(t.ExitPrice),
			PnL:      f2(t.PnL),
			Reason:   t.Reason,
		})
	}
	for _, p := range res.Equity {
		doc.Equity = append(doc.Equity, []interface{}{p.Bar, f2(p.PnL)})
	}
	for i := 0; i < len(res.Bars); i += BarSampleEvery {
		b := res.Bars[i]
		doc.Bars = append(doc.Bars, []interface{}{
			b.Index, f2(b.Close), f2(b.RSI), f2(b.EMAFast), f2(b.EMASlow), f2(b.VWAP), f2(b.ATR),
		})
	}
	return doc
}

// WriteJSON writes the export document for res to w.
func WriteJSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(Build(res)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// SaveJSON writes the export document to path.
func SaveJSON(path string, res *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
