package indicator

import (
	"math"
	"math/rand"
	"testing"

	talib "github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper/internal/model"
)

// randomWalk builds a deterministic OHLC series for cross-checking against TA-Lib.
func randomWalk(n int, seed int64) []model.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]model.Bar, n)
	price := 5250.0
	for i := range bars {
		open := price
		price += rng.NormFloat64() * 1.5
		hi := math.Max(open, price) + math.Abs(rng.NormFloat64())*0.75
		lo := math.Min(open, price) - math.Abs(rng.NormFloat64())*0.75
		bars[i] = model.Bar{Index: i + 1, Open: open, High: hi, Low: lo, Close: price, Volume: 100 + rng.Float64()*200}
	}
	return bars
}

func columns(bars []model.Bar) (high, low, close []float64) {
	for _, b := range bars {
		high = append(high, b.High)
		low = append(low, b.Low)
		close = append(close, b.Close)
	}
	return high, low, close
}

func TestOracle_RSIMatchesTALib(t *testing.T) {
	bars := randomWalk(300, 7)
	_, _, closes := columns(bars)
	want := talib.Rsi(closes, 14)

	rsi := NewRSI(14)
	for i, b := range bars {
		rsi.Update(b)
		require.Equal(t, i >= 14, rsi.Ready(), "ready at bar %d", i+1)
		if rsi.Ready() {
			assert.InDelta(t, want[i], rsi.Value(), 1e-6, "RSI bar %d", i+1)
		}
	}
}

func TestOracle_EMAMatchesTALib(t *testing.T) {
	bars := randomWalk(300, 11)
	_, _, closes := columns(bars)

	for _, period := range []int{9, 21, 50} {
		want := talib.Ema(closes, period)
		ema := NewEMA(period)
		for i, b := range bars {
			ema.Update(b)
			require.Equal(t, i >= period-1, ema.Ready(), "EMA(%d) ready at bar %d", period, i+1)
			if ema.Ready() {
				assert.InDelta(t, want[i], ema.Value(), 1e-6, "EMA(%d) bar %d", period, i+1)
			}
		}
	}
}

func TestOracle_ATRMatchesTALib(t *testing.T) {
	bars := randomWalk(300, 23)
	highs, lows, closes := columns(bars)
	want := talib.Atr(highs, lows, closes, 14)

	atr := NewATR(14)
	for i, b := range bars {
		atr.Update(b)
		require.Equal(t, i >= 14, atr.Ready(), "ready at bar %d", i+1)
		if atr.Ready() {
			assert.InDelta(t, want[i], atr.Value(), 1e-6, "ATR bar %d", i+1)
		}
	}
}

func TestRSI_AlwaysWithinBounds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rsi := NewRSI(14)
		for _, b := range randomWalk(500, seed) {
			rsi.Update(b)
			v := rsi.Value()
			require.False(t, math.IsNaN(v), "seed %d produced NaN", seed)
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestReplayOrderChangesResult(t *testing.T) {
	bars := randomWalk(60, 3)
	swapped := append([]model.Bar(nil), bars...)
	swapped[30], swapped[31] = swapped[31], swapped[30]

	a, b := NewATR(14), NewATR(14)
	for i := range bars {
		a.Update(bars[i])
		b.Update(swapped[i])
	}
	assert.NotEqual(t, a.Value(), b.Value(), "ATR must depend on bar order")
}
