package indicator

import (
	"math"
	"reflect"
	"testing"
	"time"

	"macdbot-go/internal/config"
	"macdbot-go/internal/market"
)

func testPeriods() config.Periods {
	return config.Periods{
		MACDFast:      3,
		MACDSlow:      6,
		MACDSignal:    3,
		RSI:           3,
		Bollinger:     5,
		BollingerK:    2.0,
		VolumeSMA:     5,
		TrendLookback: 2,
		MAFast:        3,
		MASlow:        5,
	}
}

func seq(closes []float64, volumes []float64) []market.Candle {
	base := time.Unix(1_700_000_000, 0).UTC()
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		vol := 100.0
		if volumes != nil {
			vol = volumes[i]
		}
		out[i] = market.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: vol,
		}
	}
	return out
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeUndefinedBeforeWarmUp(t *testing.T) {
	p := testPeriods()
	warm := p.WarmUp()
	candles := seq(flatCloses(warm, 100), nil)

	if _, ok := Compute(candles[:warm-1], p); ok {
		t.Fatalf("expected undefined frame for %d candles", warm-1)
	}
	if _, ok := Compute(candles, p); !ok {
		t.Fatalf("expected defined frame at warm-up length %d", warm)
	}
}

func TestComputeDeterministic(t *testing.T) {
	p := testPeriods()
	closes := []float64{100, 101, 99, 102, 104, 103, 105, 104, 106, 108, 107, 109, 111, 110}
	candles := seq(closes, nil)

	a, okA := Compute(candles, p)
	b, okB := Compute(candles, p)
	if okA != okB || !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input produced different frames:\n%+v\n%+v", a, b)
	}
}

func TestEMASeededBySMA(t *testing.T) {
	e := newEMA(3)
	for _, v := range []float64{1, 2, 3} {
		e.update(v)
	}
	if !e.ready() || e.value() != 2 {
		t.Fatalf("expected SMA seed 2, got %v", e.value())
	}
	e.update(4) // 4*0.5 + 2*0.5
	if e.value() != 3 {
		t.Fatalf("expected 3, got %v", e.value())
	}
	e.update(5) // 5*0.5 + 3*0.5
	if e.value() != 4 {
		t.Fatalf("expected 4, got %v", e.value())
	}
}

func TestRSISimpleRollingAverage(t *testing.T) {
	r := newRSI(3)
	for _, v := range []float64{10, 11, 12, 11, 13} {
		r.update(v)
	}
	if !r.ready() {
		t.Fatalf("rsi should be ready after 5 closes")
	}
	// Last three deltas: +1, -1, +2 → avg gain 1, avg loss 1/3, RS 3, RSI 75.
	if math.Abs(r.value()-75) > 1e-9 {
		t.Fatalf("expected RSI 75, got %v", r.value())
	}
}

func TestRSIAllGains(t *testing.T) {
	r := newRSI(3)
	for _, v := range []float64{10, 11, 12, 13, 14} {
		r.update(v)
	}
	if r.value() != 100 {
		t.Fatalf("expected RSI 100 with zero losses, got %v", r.value())
	}
}

func TestRingSampleStd(t *testing.T) {
	r := newRing(8)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		r.push(v)
	}
	if r.mean() != 5 {
		t.Fatalf("expected mean 5, got %v", r.mean())
	}
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(r.std()-want) > 1e-9 {
		t.Fatalf("expected sample std %v, got %v", want, r.std())
	}
}

func TestRingEviction(t *testing.T) {
	r := newRing(3)
	for _, v := range []float64{1, 2, 3, 4} {
		r.push(v)
	}
	if r.oldest() != 2 || r.at(2) != 4 {
		t.Fatalf("unexpected ring contents after eviction")
	}
	if r.mean() != 3 {
		t.Fatalf("expected mean 3, got %v", r.mean())
	}
}

func TestOBVAccumulation(t *testing.T) {
	e := NewEngine(testPeriods())
	closes := []float64{10, 11, 11, 10}
	for _, c := range seq(closes, nil) {
		e.Update(c)
	}
	// +100 on the rise, unchanged on the flat candle, -100 on the fall.
	if e.obv != 0 {
		t.Fatalf("expected OBV 0, got %v", e.obv)
	}

	e = NewEngine(testPeriods())
	for _, c := range seq([]float64{10, 11, 12}, nil) {
		e.Update(c)
	}
	if e.obv != 200 {
		t.Fatalf("expected OBV 200, got %v", e.obv)
	}
}

func TestFrameBollingerAndMAs(t *testing.T) {
	p := testPeriods()
	warm := p.WarmUp()
	frame, ok := Compute(seq(flatCloses(warm, 100), nil), p)
	if !ok {
		t.Fatalf("expected defined frame")
	}
	// Flat closes: middle band at the price, zero band width, equal MAs.
	if frame.BBMiddle != 100 || frame.BBUpper != 100 || frame.BBLower != 100 {
		t.Fatalf("unexpected bands: %+v", frame)
	}
	if frame.BBPosition() != 0.5 {
		t.Fatalf("collapsed bands should normalize to 0.5, got %v", frame.BBPosition())
	}
	if frame.MAFast != 100 || frame.MASlow != 100 {
		t.Fatalf("unexpected MAs: fast %v slow %v", frame.MAFast, frame.MASlow)
	}
	if frame.MACD != 0 || frame.MACDSignal != 0 {
		t.Fatalf("flat series should have zero MACD, got %+v", frame)
	}
}

func TestVolumeRatioAndTrend(t *testing.T) {
	p := testPeriods()
	warm := p.WarmUp()
	volumes := make([]float64, warm)
	for i := range volumes {
		volumes[i] = 100
	}
	// Surge at the end: ratio above 1 and rising across the lookback.
	volumes[warm-2] = 150
	volumes[warm-1] = 300

	frame, ok := Compute(seq(flatCloses(warm, 100), volumes), p)
	if !ok {
		t.Fatalf("expected defined frame")
	}
	if frame.VolumeRatio <= 1.4 {
		t.Fatalf("expected surged volume ratio, got %v", frame.VolumeRatio)
	}
	if frame.VolumeTrendPct <= 0 {
		t.Fatalf("expected rising volume trend, got %v", frame.VolumeTrendPct)
	}
}
