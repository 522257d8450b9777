// Package report turns an engine run into summary statistics, the
// results.json export, an HTML chart and a console summary.
package report

import (
	"github.com/shopspring/decimal"

	"scalper/internal/model"
)

// Verdict grades a run.
type Verdict string

const (
	VerdictViable Verdict = "VIABLE"
	VerdictOK     Verdict = "OK"
	VerdictReview Verdict = "REVIEW"
)

// Stats summarizes a list of closed trades.
type Stats struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64 // percent
	NetPnL       float64
	GrossProfit  float64
	GrossLoss    float64 // <= 0
	ProfitFactor float64 // 0 when there are no losses
	MaxDrawdown  float64 // <= 0, worst dip of cumulative P&L below its running peak
	Expectancy   float64
	AvgWin       float64
	AvgLoss      float64
	BestTrade    float64
	WorstTrade   float64
	Exits        map[model.ExitReason]int
}

// Summarize computes Stats. Money totals are accumulated in decimal so
// long runs do not drift. Breakeven trades count as wins.
func Summarize(trades []model.Trade) Stats {
	s := Stats{Trades: len(trades), Exits: make(map[model.ExitReason]int)}
	if len(trades) == 0 {
		return s
	}

	var profit, loss, cum, peak, maxDD decimal.Decimal
	s.BestTrade = trades[0].PnL
	s.WorstTrade = trades[0].PnL
	for _, t := range trades {
		pnl := decimal.NewFromFloat(t.PnL)
		if t.Win() {
			s.Wins++
			profit = profit.Add(pnl)
		} else {
			s.Losses++
			loss = loss.Add(pnl)
		}
		if t.PnL > s.BestTrade {
			s.BestTrade = t.PnL
		}
		if t.PnL < s.WorstTrade {
			s.WorstTrade = t.PnL
		}
		s.Exits[t.Reason]++

		cum = cum.Add(pnl)
		if cum.GreaterThan(peak) {
			peak = cum
		}
		if dd := cum.Sub(peak); dd.LessThan(maxDD) {
			maxDD = dd
		}
	}

	net := profit.Add(loss)
	n := decimal.NewFromInt(int64(s.Trades))

	s.GrossProfit = profit.InexactFloat64()
	s.GrossLoss = loss.InexactFloat64()
	s.NetPnL = net.InexactFloat64()
	s.MaxDrawdown = maxDD.InexactFloat64()
	s.Expectancy = net.Div(n).InexactFloat64()
	s.WinRate = 100 * float64(s.Wins) / float64(s.Trades)
	if !loss.IsZero() {
		s.ProfitFactor = profit.Div(loss.Abs()).InexactFloat64()
	}
	if s.Wins > 0 {
		s.AvgWin = profit.Div(decimal.NewFromInt(int64(s.Wins))).InexactFloat64()
	}
	if s.Losses > 0 {
		s.AvgLoss = loss.Div(decimal.NewFromInt(int64(s.Losses))).InexactFloat64()
	}
	return s
}

// Verdict grades the run: VIABLE needs a profit, profit factor above 1.2
// and a win rate above 45%; OK needs a profit.
func (s Stats) Verdict() Verdict {
	if s.NetPnL <= 0 {
		return VerdictReview
	}
	pf := s.ProfitFactor
	if s.GrossLoss == 0 {
		pf = 999
	}
	if pf > 1.2 && s.WinRate > 45 {
		return VerdictViable
	}
	return VerdictOK
}
