// Package backtest replays a finite candle history through the shared
// indicator→detector→ledger pipeline and aggregates trade statistics.
package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/config"
	"macdbot-go/internal/detector"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/ledger"
	"macdbot-go/internal/market"
	"macdbot-go/internal/signal"
)

// Stats aggregates the closed trades of one replay. A position still open at
// the final candle is excluded entirely.
type Stats struct {
	ClosedTrades int           `json:"closed_trades"`
	Wins         int           `json:"wins"`
	WinRate      float64       `json:"win_rate"`
	TotalPnL     float64       `json:"total_pnl"`
	AveragePnL   float64       `json:"average_pnl"`
	AvgHolding   time.Duration `json:"avg_holding"`
	Rejected     int           `json:"rejected"`
}

// Result is the full outcome of one replay.
type Result struct {
	Trades       []ledger.Position
	OpenPosition *ledger.Position
	Decisions    []detector.Decision
	Stats        Stats
}

// Run replays candles in order. It aborts with an error rather than emit
// partial statistics: malformed input surfaces as *market.DataError, ledger
// pairing violations as the ledger's sentinel errors.
func Run(candles []market.Candle, rubric config.Rubric, log zerolog.Logger) (Result, error) {
	if err := rubric.Validate(); err != nil {
		return Result{}, err
	}

	engine := indicator.NewEngine(rubric.Periods)
	det := detector.New(rubric, log)
	book := ledger.New(rubric.Quantity)

	var result Result
	var prev *market.Candle
	for i := range candles {
		c := candles[i]
		if err := market.Validate(prev, c); err != nil {
			return Result{}, fmt.Errorf("candle %d: %w", i, err)
		}
		prev = &candles[i]

		frame, ok := engine.Update(c)
		if !ok {
			continue
		}
		decision := det.OnFrame(frame)
		if decision == nil {
			continue
		}
		result.Decisions = append(result.Decisions, *decision)
		if decision.Outcome != detector.Accepted {
			continue
		}
		if err := applyToLedger(book, decision.Signal); err != nil {
			return Result{}, err
		}
	}

	result.Trades = book.History()
	if open, ok := book.Current(); ok {
		result.OpenPosition = &open
	}
	result.Stats = computeStats(result.Trades, result.Decisions)
	return result, nil
}

// applyToLedger mutates the ledger for an accepted signal. A pairing error
// here means detector and ledger state diverged, which is fatal to the run.
func applyToLedger(book *ledger.Ledger, sig signal.Signal) error {
	if sig.Direction == signal.Buy {
		if err := book.Open(sig, sig.Price, sig.Time); err != nil {
			return fmt.Errorf("apply buy at %s: %w", sig.Time, err)
		}
		return nil
	}
	if _, err := book.Close(sig, sig.Price, sig.Time); err != nil {
		return fmt.Errorf("apply sell at %s: %w", sig.Time, err)
	}
	return nil
}

func computeStats(trades []ledger.Position, decisions []detector.Decision) Stats {
	stats := Stats{ClosedTrades: len(trades)}
	for _, d := range decisions {
		if d.Outcome == detector.Rejected {
			stats.Rejected++
		}
	}
	if len(trades) == 0 {
		return stats
	}
	var holding time.Duration
	for _, tr := range trades {
		if tr.RealizedPnL > 0 {
			stats.Wins++
		}
		stats.TotalPnL += tr.RealizedPnL
		holding += tr.HoldingDuration()
	}
	n := float64(len(trades))
	stats.WinRate = float64(stats.Wins) / n
	stats.AveragePnL = stats.TotalPnL / n
	stats.AvgHolding = holding / time.Duration(len(trades))
	return stats
}
