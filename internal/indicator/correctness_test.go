package indicator

import (
	"math"
	"testing"

	"scalper/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func closeBar(price float64) model.Bar {
	return model.Bar{Open: price, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 100}
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5
	// Prices: 100, 102, 104, 103, 105
	//
	// Bar 3: seed = 306/3 = 102.0
	// Bar 4: EMA = (103-102)*0.5 + 102 = 102.5
	// Bar 5: EMA = (105-102.5)*0.5 + 102.5 = 103.75

	ema := NewEMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.5, 103.75}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		ema.Update(closeBar(p))
		if ema.Ready() != ready[i] {
			t.Errorf("bar %d: Ready()=%v, want %v", i, ema.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "EMA(3)", ema.Value(), expected[i], 1e-9)
		}
	}
}

func TestEMA_ConstantSeriesConvergesExactly(t *testing.T) {
	const v = 5250.25
	for _, period := range []int{9, 21, 50} {
		ema := NewEMA(period)
		for i := 0; i < period*3; i++ {
			ema.Add(v)
			if ema.Ready() && ema.Value() != v {
				t.Fatalf("EMA(%d) bar %d: got %.10f, want exactly %.2f", period, i, ema.Value(), v)
			}
		}
	}
}

func TestEMA_Name(t *testing.T) {
	if got := NewEMA(21).Name(); got != "EMA_21" {
		t.Errorf("expected EMA_21, got %s", got)
	}
}

// ────────────────────────────────────────────────────────────
// SMMA Correctness (Wilder's Smoothing)
// ────────────────────────────────────────────────────────────

func TestSMMA_Correctness_Period3(t *testing.T) {
	// Bars 1-3: seed = (100+102+104)/3 = 102.0
	// Bar 4: (102.0*2 + 103)/3 = 102.3333
	// Bar 5: (102.3333*2 + 105)/3 = 103.2222

	smma := NewSMMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.3333, 103.2222}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		smma.Update(closeBar(p))
		if smma.Ready() != ready[i] {
			t.Errorf("bar %d: Ready()=%v, want %v", i, smma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMMA(3)", smma.Value(), expected[i], 0.001)
		}
	}

	smma.Reset()
	if smma.Ready() || smma.Value() != 0 {
		t.Errorf("expected cleared SMMA after Reset, got ready=%v value=%.4f", smma.Ready(), smma.Value())
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Deltas: +0.34, -0.25, -0.48, +0.72, +0.50
	// First RSI (bar 6): avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	//   RSI = 100 - 100/(1+2.13699) = 68.112
	// Bar 7 (+0.27): avgGain = 0.3036, avgLoss = 0.1168 → 72.219
	// Bar 8 (+0.32): avgGain = 0.30688, avgLoss = 0.09344 → 76.658
	// Bar 9 (+0.42): avgGain = 0.329504, avgLoss = 0.074752 → 81.509

	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}
	want := map[int]float64{5: 68.112, 6: 72.219, 7: 76.658, 8: 81.509}

	rsi := NewRSI(5)
	for i, p := range prices {
		rsi.Update(closeBar(p))
		if exp, ok := want[i]; ok {
			assertClose(t, "RSI(5) bar "+itoa(i+1), rsi.Value(), exp, 0.01)
		}
	}
}

func TestRSI_NeutralBeforeWarmup(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 14; i++ {
		rsi.Add(100 + float64(i))
		if rsi.Value() != 50 {
			t.Fatalf("bar %d: expected neutral 50 before warm-up, got %.4f", i+1, rsi.Value())
		}
	}
}

func TestRSI_AllUp_Is100(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Add(100 + float64(i))
	}
	assertClose(t, "RSI all up", rsi.Value(), 100.0, 1e-9)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Add(200 - float64(i))
	}
	assertClose(t, "RSI all down", rsi.Value(), 0.0, 1e-9)
}

func TestRSI_Flat_Is100(t *testing.T) {
	// Both averages are zero; the near-zero loss branch pins RSI to 100.
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Add(100)
	}
	assertClose(t, "RSI flat", rsi.Value(), 100.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// ATR Correctness
// ────────────────────────────────────────────────────────────

func TestATR_Correctness_Period3(t *testing.T) {
	// Bar 1 seeds prevClose=9.
	// TR2 = 2, TR3 = 2.5, TR4 = 1.5 → seed = 2.0 (ready after bar 4)
	// TR5 = 2.5 → (2.0*2 + 2.5)/3 = 2.16667
	// TR6 = |16-12.5| = 3.5 (gap) → (2.16667*2 + 3.5)/3 = 2.61111
	bars := []model.Bar{
		{High: 10, Low: 8, Close: 9},
		{High: 11, Low: 9, Close: 10},
		{High: 12, Low: 9.5, Close: 11},
		{High: 11.5, Low: 10, Close: 10.5},
		{High: 13, Low: 10.5, Close: 12.5},
		{High: 16, Low: 15, Close: 15.5},
	}
	expected := []float64{0, 0, 0, 2.0, 2.16667, 2.61111}
	ready := []bool{false, false, false, true, true, true}

	atr := NewATR(3)
	for i, b := range bars {
		atr.Update(b)
		if atr.Ready() != ready[i] {
			t.Errorf("bar %d: Ready()=%v, want %v", i+1, atr.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "ATR(3)", atr.Value(), expected[i], 0.0001)
		}
	}
}

func TestTrueRange_UsesPreviousClose(t *testing.T) {
	assertClose(t, "inside bar", TrueRange(11, 9, 10), 2, 1e-12)
	assertClose(t, "gap up", TrueRange(16, 15, 12), 4, 1e-12)
	assertClose(t, "gap down", TrueRange(8, 7, 12), 5, 1e-12)
}

// ────────────────────────────────────────────────────────────
// VWAP Correctness
// ────────────────────────────────────────────────────────────

func TestVWAP_WeightsByVolume(t *testing.T) {
	v := NewVWAP()
	if v.Ready() {
		t.Fatal("expected VWAP not ready before any volume")
	}

	v.Update(model.Bar{Close: 100, Volume: 10})
	if !v.Ready() {
		t.Fatal("expected VWAP ready after first bar with volume")
	}
	v.Update(model.Bar{Close: 102, Volume: 30})
	assertClose(t, "VWAP", v.Value(), 101.5, 1e-12)

	v.Reset()
	if v.Ready() || v.Value() != 0 {
		t.Errorf("expected empty VWAP after Reset, got ready=%v value=%.4f", v.Ready(), v.Value())
	}
}

func TestVWAP_ZeroVolumeNotReady(t *testing.T) {
	v := NewVWAP()
	v.Add(100, 0)
	v.Add(101, 0)
	if v.Ready() {
		t.Error("expected VWAP not ready while cumulative volume is zero")
	}
}
