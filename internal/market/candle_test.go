package market

import (
	"errors"
	"math"
	"testing"
	"time"
)

func candleAt(ts int64, close float64) Candle {
	return Candle{
		Time:   time.Unix(ts, 0).UTC(),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 100,
	}
}

func TestValidateAcceptsOrderedCandles(t *testing.T) {
	prev := candleAt(1000, 50)
	if err := Validate(nil, prev); err != nil {
		t.Fatalf("unexpected error for first candle: %v", err)
	}
	if err := Validate(&prev, candleAt(1060, 51)); err != nil {
		t.Fatalf("unexpected error for ordered candle: %v", err)
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	prev := candleAt(1000, 50)

	cases := []struct {
		name   string
		candle Candle
	}{
		{"duplicate timestamp", candleAt(1000, 50)},
		{"out of order", candleAt(940, 50)},
		{"negative volume", func() Candle { c := candleAt(1060, 50); c.Volume = -1; return c }()},
		{"zero price", func() Candle { c := candleAt(1060, 50); c.Close = 0; return c }()},
		{"low above high", func() Candle { c := candleAt(1060, 50); c.Low = 60; return c }()},
		{"nan close", func() Candle { c := candleAt(1060, 50); c.Close = math.NaN(); return c }()},
	}
	for _, tc := range cases {
		err := Validate(&prev, tc.candle)
		if err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
		var dataErr *DataError
		if !errors.As(err, &dataErr) {
			t.Fatalf("%s: expected *DataError, got %T", tc.name, err)
		}
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := int64(0); i < 5; i++ {
		if err := w.Append(candleAt(1000+i*60, 50+float64(i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if w.Len() != 3 {
		t.Fatalf("expected 3 buffered candles, got %d", w.Len())
	}
	snap := w.Snapshot()
	if snap[0].Close != 52 || snap[2].Close != 54 {
		t.Fatalf("unexpected window contents: %+v", snap)
	}
	last, ok := w.Last()
	if !ok || last.Close != 54 {
		t.Fatalf("unexpected last candle: %+v", last)
	}
}

func TestWindowRejectsOutOfOrder(t *testing.T) {
	w := NewWindow(3)
	if err := w.Append(candleAt(1000, 50)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(candleAt(1000, 51)); err == nil {
		t.Fatalf("expected duplicate timestamp rejection")
	}
	if w.Len() != 1 {
		t.Fatalf("rejected append must not mutate window")
	}
}

func TestStubProviderDeterministic(t *testing.T) {
	a := NewStubProvider(time.Minute)
	b := NewStubProvider(time.Minute)

	ca, err := a.GetCandles(nil, "BTCUSDT", "1m", 10)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	cb, _ := b.GetCandles(nil, "BTCUSDT", "1m", 10)
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("stub output differs at %d: %+v vs %+v", i, ca[i], cb[i])
		}
	}

	next, err := a.GetLatestCandle(nil, "BTCUSDT", "1m")
	if err != nil {
		t.Fatalf("GetLatestCandle: %v", err)
	}
	if !next.Time.After(ca[len(ca)-1].Time) {
		t.Fatalf("latest candle should advance past batch")
	}
}
