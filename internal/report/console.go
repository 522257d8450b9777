package report

import (
	"fmt"
	"io"
	"strings"

	"scalper/internal/engine"
	"scalper/internal/model"
)

var verdictText = map[Verdict]string{
	VerdictViable: "VIABLE: profitable, profit factor > 1.2, win rate > 45%",
	VerdictOK:     "OK: profitable, parameters worth tuning",
	VerdictReview: "REVIEW: adjust indicators or risk limits",
}

// PrintSummary writes the human-readable run summary.
func PrintSummary(w io.Writer, res *engine.Result) {
	rule := strings.Repeat("=", 66)
	fmt.Fprintf(w, "\n  %s\n  %-66s\n  %s\n\n", rule, "                      SIMULATION RESULTS  "+res.RunID, rule)
	fmt.Fprintf(w, "  Bars:          %d / %d\n", res.BarsProcessed, res.BarsRequested)
	if res.Killed {
		fmt.Fprintf(w, "  Circuit:       KILLED (%s)\n", res.KillReason)
	}

	if len(res.Trades) == 0 {
		fmt.Fprintf(w, "  No trades executed.\n\n")
		return
	}

	s := Summarize(res.Trades)
	pf := s.ProfitFactor
	if s.GrossLoss == 0 {
		pf = 999
	}

	fmt.Fprintf(w, "  Trades:        %d total | %d wins | %d losses\n", s.Trades, s.Wins, s.Losses)
	fmt.Fprintf(w, "  Win Rate:      %.1f%%\n\n", s.WinRate)
	fmt.Fprintf(w, "  Gross Profit:  $%.2f\n", s.GrossProfit)
	fmt.Fprintf(w, "  Gross Loss:    $%.2f\n", s.GrossLoss)
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 32))
	fmt.Fprintf(w, "  Net P&L:       $%.2f\n\n", s.NetPnL)
	fmt.Fprintf(w, "  Profit Factor: %.2f\n", pf)
	fmt.Fprintf(w, "  Expectancy:    $%.2f / trade\n", s.Expectancy)
	fmt.Fprintf(w, "  Max Drawdown:  $%.2f\n\n", s.MaxDrawdown)
	fmt.Fprintf(w, "  Avg Win:       $%.2f\n", s.AvgWin)
	fmt.Fprintf(w, "  Avg Loss:      $%.2f\n", s.AvgLoss)
	fmt.Fprintf(w, "  Best Trade:    $%.2f\n", s.BestTrade)
	fmt.Fprintf(w, "  Worst Trade:   $%.2f\n\n", s.WorstTrade)
	fmt.Fprintf(w, "  Exit Types:    Stop: %d | Target: %d | Trail: %d | MaxHold: %d | EOD: %d\n",
		s.Exits[model.ExitStopLoss], s.Exits[model.ExitTakeProfit], s.Exits[model.ExitTrailingStop],
		s.Exits[model.ExitMaxHold], s.Exits[model.ExitEODFlatten])

	fmt.Fprintf(w, "\n  %s\n", rule)
	fmt.Fprintf(w, "  %s\n\n", verdictText[s.Verdict()])
}
