package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"scalper/internal/engine"
)

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"
	colorPrice         = "#eceff4"
	colorEmaFast       = "#3b82f6"
	colorEmaSlow       = "#fbbf24"
	colorVWAP          = "#a78bfa"
	colorRSI           = "#22d3ee"
	colorEquity        = "#34d399"

	chartWidthPx  = 1400
	priceHeightPx = 520
	panelHeightPx = 260
)

// RenderChart writes an HTML page with the price/EMA/VWAP panel, an RSI
// panel and the equity curve.
func RenderChart(w io.Writer, res *engine.Result) error {
	if len(res.Bars) == 0 {
		return fmt.Errorf("no bars to chart for run %s", res.RunID)
	}

	page := components.NewPage()
	page.PageTitle = "scalper " + res.RunID
	page.SetLayout(components.PageFlexLayout)

	xAxis := make([]string, len(res.Bars))
	closes := make([]float64, len(res.Bars))
	fast := make([]float64, len(res.Bars))
	slow := make([]float64, len(res.Bars))
	vwap := make([]float64, len(res.Bars))
	rsi := make([]float64, len(res.Bars))
	for i, b := range res.Bars {
		xAxis[i] = strconv.Itoa(b.Index)
		closes[i] = b.Close
		fast[i] = b.EMAFast
		slow[i] = b.EMASlow
		vwap[i] = b.VWAP
		rsi[i] = b.RSI
	}

	price := newLineChart("Price "+res.RunID, priceHeightPx)
	price.SetGlobalOptions(
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)
	price.SetXAxis(xAxis).
		AddSeries("Close", toLineData(closes), charts.WithLineStyleOpts(opts.LineStyle{Color: colorPrice, Width: 1})).
		AddSeries("EMA Fast", toLineData(fast), charts.WithLineStyleOpts(opts.LineStyle{Color: colorEmaFast, Width: 2})).
		AddSeries("EMA Slow", toLineData(slow), charts.WithLineStyleOpts(opts.LineStyle{Color: colorEmaSlow, Width: 2})).
		AddSeries("VWAP", toLineData(vwap), charts.WithLineStyleOpts(opts.LineStyle{Color: colorVWAP, Width: 1, Type: "dashed"}))

	rsiChart := newLineChart("RSI", panelHeightPx)
	rsiChart.SetGlobalOptions(
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, AxisLabel: &opts.AxisLabel{Color: colorTextSecondary}}),
	)
	rsiChart.SetXAxis(xAxis).
		AddSeries("RSI", toLineData(rsi), charts.WithLineStyleOpts(opts.LineStyle{Color: colorRSI, Width: 1}))

	page.AddCharts(price, rsiChart)

	if len(res.Equity) > 0 {
		eqX := make([]string, len(res.Equity))
		eqY := make([]float64, len(res.Equity))
		for i, p := range res.Equity {
			eqX[i] = strconv.Itoa(p.Bar)
			eqY[i] = p.PnL
		}
		equity := newLineChart("Equity ($)", panelHeightPx)
		equity.SetXAxis(eqX).
			AddSeries("P&L", toLineData(eqY),
				charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
				charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.15)}),
			)
		page.AddCharts(equity)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// SaveChart writes the HTML chart to path.
func SaveChart(path string, res *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := RenderChart(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newLineChart(title string, heightPx int) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", heightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "left", TitleStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: colorTextPrimary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	return line
}

// toLineData rounds values for display; zero values before indicator
// warmup are left as gaps.
func toLineData(series []float64) []opts.LineData {
	out := make([]opts.LineData, len(series))
	for i, v := range series {
		if v == 0 || math.IsNaN(v) {
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: math.Round(v*100) / 100}
	}
	return out
}
