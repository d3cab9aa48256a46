package integration

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/backtest"
	"macdbot-go/internal/config"
	"macdbot-go/internal/live"
	"macdbot-go/internal/market"
	"macdbot-go/internal/signal"
)

func testRubric() config.Rubric {
	return config.Rubric{
		Weights:             config.Weights{Volume: 30, VolumeTrend: 25, RSI: 20, Bollinger: 15, OBV: 10, Trend: 5},
		ConfidenceThreshold: 0,
		Quantity:            1,
		Periods: config.Periods{
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
		},
	}
}

func fixtureCandles() []market.Candle {
	var closes []float64
	for i := 0; i < 12; i++ {
		closes = append(closes, 100)
	}
	for p := 100.0; p > 85; p -= 1.5 {
		closes = append(closes, p)
	}
	for p := 85.0; p < 112; p += 1.7 {
		closes = append(closes, p)
	}
	for p := 112.0; p > 90; p -= 1.8 {
		closes = append(closes, p)
	}

	base := time.Unix(1_700_000_000, 0).UTC()
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

// replayProvider serves an empty bootstrap so that every candle flows
// through live ticks, then feeds the tape in small chunks.
type replayProvider struct {
	mu           sync.Mutex
	tape         []market.Candle
	bootstrapped bool
	cursor       int
}

func (p *replayProvider) GetCandles(_ context.Context, _, _ string, limit int) ([]market.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.bootstrapped {
		p.bootstrapped = true
		return nil, nil
	}
	end := p.cursor + limit
	if end > len(p.tape) {
		end = len(p.tape)
	}
	out := p.tape[p.cursor:end]
	p.cursor = end
	return out, nil
}

func (p *replayProvider) GetLatestCandle(ctx context.Context, symbol, interval string) (market.Candle, error) {
	candles, err := p.GetCandles(ctx, symbol, interval, 1)
	if err != nil || len(candles) == 0 {
		return market.Candle{}, errors.New("tape exhausted")
	}
	return candles[0], nil
}

func (p *replayProvider) exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bootstrapped && p.cursor >= len(p.tape)
}

// The backtest replay and the live poller must make identical decisions from
// identical candles.
func TestBacktestAndLiveAgree(t *testing.T) {
	candles := fixtureCandles()
	rubric := testRubric()

	btResult, err := backtest.Run(candles, rubric, zerolog.Nop())
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if len(btResult.Trades) == 0 {
		t.Fatalf("fixture should produce at least one closed trade")
	}

	provider := &replayProvider{tape: candles}
	runner, err := live.NewRunner(live.Options{
		Symbol:           "BTCUSDT",
		Interval:         "1h",
		Rubric:           rubric,
		Provider:         provider,
		Log:              zerolog.Nop(),
		PollInterval:     time.Millisecond,
		FetchTimeout:     50 * time.Millisecond,
		MaxFetchFailures: 3,
		WindowMargin:     5,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	for !provider.exhausted() {
		select {
		case err := <-done:
			t.Fatalf("runner stopped early: %v", err)
		case <-time.After(5 * time.Millisecond):
		}
	}
	// One more poll interval so the final batch is fully processed.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	liveTrades := runner.Ledger().History()
	if !reflect.DeepEqual(btResult.Trades, liveTrades) {
		t.Fatalf("backtest and live disagree:\nbacktest: %+v\nlive:     %+v", btResult.Trades, liveTrades)
	}

	for _, tr := range liveTrades {
		if tr.EntrySignal.Direction != signal.Buy {
			t.Fatalf("entries must be buys: %+v", tr.EntrySignal)
		}
		if tr.ExitSignal == nil || tr.ExitSignal.Direction != signal.Sell {
			t.Fatalf("exits must be sells: %+v", tr.ExitSignal)
		}
	}
}
