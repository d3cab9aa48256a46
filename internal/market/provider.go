package market

import (
	"context"
	"math"
	"time"
)

// Provider is the contract the engine consumes for market data. Transport,
// auth, and rate limiting are the implementation's concern.
type Provider interface {
	// GetCandles returns up to limit closed candles in chronological order.
	// Forming candles must never be returned: their values are transient.
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	// GetLatestCandle returns the most recent closed candle.
	GetLatestCandle(ctx context.Context, symbol, interval string) (Candle, error)
}

// StubProvider emits deterministic synthetic candles, useful for tests and
// offline work. Prices follow a slow sine wave with a volume pulse so the
// pipeline sees both quiet and busy stretches.
type StubProvider struct {
	Start time.Time
	Step  time.Duration

	produced int
}

// NewStubProvider builds a stub anchored at a fixed epoch so output is
// reproducible run to run.
func NewStubProvider(step time.Duration) *StubProvider {
	if step <= 0 {
		step = time.Minute
	}
	return &StubProvider{Start: time.Unix(1_700_000_000, 0).UTC(), Step: step}
}

func (s *StubProvider) candleAt(i int) Candle {
	base := 100.0 + 10.0*math.Sin(float64(i)/8.0)
	vol := 1000.0 + 900.0*math.Sin(float64(i)/5.0)
	if vol < 50 {
		vol = 50
	}
	return Candle{
		Time:   s.Start.Add(time.Duration(i) * s.Step),
		Open:   base - 0.2,
		High:   base + 0.6,
		Low:    base - 0.6,
		Close:  base,
		Volume: vol,
	}
}

// GetCandles returns the next limit synthetic candles.
func (s *StubProvider) GetCandles(_ context.Context, _, _ string, limit int) ([]Candle, error) {
	out := make([]Candle, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, s.candleAt(s.produced))
		s.produced++
	}
	return out, nil
}

// GetLatestCandle returns the next synthetic candle.
func (s *StubProvider) GetLatestCandle(_ context.Context, _, _ string) (Candle, error) {
	c := s.candleAt(s.produced)
	s.produced++
	return c, nil
}
