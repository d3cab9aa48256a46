// Package live drives the shared signal pipeline from a polled market data
// provider.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/config"
	"macdbot-go/internal/detector"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/ledger"
	"macdbot-go/internal/market"
	"macdbot-go/internal/metrics"
	"macdbot-go/internal/signal"
)

// ErrProviderDown is surfaced after max consecutive fetch failures.
var ErrProviderDown = errors.New("market data provider unavailable")

// fetchBatch is how many recent candles each tick asks for, so a slow poll
// cadence still catches every closed candle.
const fetchBatch = 5

// SignalSink receives accepted signals for downstream collaborators
// (order execution, alerting). Implementations must not block.
type SignalSink interface {
	OnSignalAccepted(signal.Signal)
}

// TickSummary is the best-effort observability payload emitted once per tick.
type TickSummary struct {
	Symbol       string
	Time         time.Time
	Skipped      bool
	SkipReason   string
	NewCandles   int
	Decision     *detector.Decision
	PositionOpen bool
}

// Options bundle runner construction parameters.
type Options struct {
	Symbol    string
	Interval  string
	Rubric    config.Rubric
	Provider  market.Provider
	Sink      SignalSink
	Recorder  *ledger.JSONLRecorder // optional
	Summaries chan<- TickSummary    // optional, non-blocking sends
	Log       zerolog.Logger

	PollInterval     time.Duration
	FetchTimeout     time.Duration
	MaxFetchFailures int
	WindowMargin     int
}

// Runner owns one instrument's rolling window, detector, and ledger.
// Single-writer: only Run's goroutine mutates them.
type Runner struct {
	opts   Options
	window *market.Window
	engine *indicator.Engine
	det    *detector.Detector
	book   *ledger.Ledger

	failures int
	lastSeen time.Time
}

// NewRunner validates options and builds a runner.
func NewRunner(opts Options) (*Runner, error) {
	if err := opts.Rubric.Validate(); err != nil {
		return nil, err
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("%w: provider required", config.ErrInvalid)
	}
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be positive", config.ErrInvalid)
	}
	if opts.MaxFetchFailures <= 0 {
		opts.MaxFetchFailures = 5
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = opts.PollInterval
	}
	warm := opts.Rubric.Periods.WarmUp()
	return &Runner{
		opts:   opts,
		window: market.NewWindow(warm + opts.WindowMargin),
		engine: indicator.NewEngine(opts.Rubric.Periods),
		det:    detector.New(opts.Rubric, opts.Log),
		book:   ledger.New(opts.Rubric.Quantity),
	}, nil
}

// Ledger exposes the runner's position ledger for inspection.
func (r *Runner) Ledger() *ledger.Ledger { return r.book }

// Run bootstraps the window from history and then ticks at the configured
// cadence until ctx is canceled. The in-flight tick always completes first.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.opts.Log.Info().Str("symbol", r.opts.Symbol).Msg("live runner stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// RunStream drives the same pipeline from pushed candles instead of polling.
// History is still bootstrapped from the provider; afterwards each candle
// received on in is processed as one tick.
func (r *Runner) RunStream(ctx context.Context, in <-chan market.Candle) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			r.opts.Log.Info().Str("symbol", r.opts.Symbol).Msg("live runner stopped")
			return ctx.Err()
		case c, ok := <-in:
			if !ok {
				return fmt.Errorf("%w: candle stream closed", ErrProviderDown)
			}
			summary := TickSummary{Symbol: r.opts.Symbol, Time: time.Now().UTC()}
			if c.Time.After(r.lastSeen) {
				if err := r.processCandle(c, &summary); err != nil {
					return err
				}
			}
			_, summary.PositionOpen = r.book.Current()
			r.setPositionGauge(summary.PositionOpen)
			r.emit(summary)
		}
	}
}

// bootstrap seeds the window and indicator engine with recent history.
// Historical frames only prime the detector's crossover context; they are
// never evaluated, so the state machine stays flat no matter what the
// history contains. Acting on historical crossovers would trade at stale
// prices against an empty ledger.
func (r *Runner) bootstrap(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	limit := r.opts.Rubric.Periods.WarmUp() + r.opts.WindowMargin
	candles, err := r.opts.Provider.GetCandles(fetchCtx, r.opts.Symbol, r.opts.Interval, limit)
	if err != nil {
		return fmt.Errorf("bootstrap history: %w", err)
	}
	for _, c := range candles {
		if err := r.window.Append(c); err != nil {
			var dataErr *market.DataError
			if errors.As(err, &dataErr) {
				r.opts.Log.Warn().Err(err).Msg("dropping malformed bootstrap candle")
				continue
			}
			return err
		}
		if frame, ok := r.engine.Update(c); ok {
			r.det.Prime(frame)
		}
		r.lastSeen = c.Time
		metrics.CandlesTotal.WithLabelValues(r.opts.Symbol).Inc()
	}
	r.opts.Log.Info().
		Str("symbol", r.opts.Symbol).
		Int("candles", r.window.Len()).
		Msg("bootstrap complete")
	return nil
}

// tick is all-or-nothing: a failed fetch mutates nothing and is retried on
// the next interval. After MaxFetchFailures consecutive failures the
// provider error is surfaced to the operator.
func (r *Runner) tick(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	candles, err := r.opts.Provider.GetCandles(fetchCtx, r.opts.Symbol, r.opts.Interval, fetchBatch)
	cancel()
	if err != nil {
		r.failures++
		metrics.FetchFailures.WithLabelValues(r.opts.Symbol).Inc()
		metrics.TicksSkipped.WithLabelValues(r.opts.Symbol).Inc()
		r.opts.Log.Warn().Err(err).
			Int("consecutive", r.failures).
			Msg("tick skipped: fetch failed")
		r.emit(TickSummary{
			Symbol:     r.opts.Symbol,
			Time:       time.Now().UTC(),
			Skipped:    true,
			SkipReason: err.Error(),
		})
		if r.failures >= r.opts.MaxFetchFailures {
			return fmt.Errorf("%w: %d consecutive fetch failures: %v",
				ErrProviderDown, r.failures, err)
		}
		return nil
	}
	r.failures = 0

	summary := TickSummary{Symbol: r.opts.Symbol, Time: time.Now().UTC()}
	for _, c := range candles {
		if !c.Time.After(r.lastSeen) {
			continue // already processed
		}
		if err := r.processCandle(c, &summary); err != nil {
			return err
		}
	}
	_, summary.PositionOpen = r.book.Current()
	r.setPositionGauge(summary.PositionOpen)
	r.emit(summary)
	return nil
}

func (r *Runner) processCandle(c market.Candle, summary *TickSummary) error {
	if err := r.window.Append(c); err != nil {
		var dataErr *market.DataError
		if errors.As(err, &dataErr) {
			r.opts.Log.Warn().Err(err).Msg("dropping malformed candle")
			return nil
		}
		return err
	}
	r.lastSeen = c.Time
	summary.NewCandles++
	metrics.CandlesTotal.WithLabelValues(r.opts.Symbol).Inc()

	frame, ok := r.engine.Update(c)
	if !ok {
		return nil
	}
	decision := r.det.OnFrame(frame)
	if decision == nil {
		return nil
	}
	summary.Decision = decision
	metrics.SignalsTotal.WithLabelValues(
		r.opts.Symbol, string(decision.Signal.Direction), string(decision.Outcome)).Inc()
	if decision.Outcome != detector.Accepted {
		return nil
	}
	return r.applyAccepted(decision.Signal)
}

func (r *Runner) applyAccepted(sig signal.Signal) error {
	if sig.Direction == signal.Buy {
		if err := r.book.Open(sig, sig.Price, sig.Time); err != nil {
			return fmt.Errorf("apply buy: %w", err)
		}
	} else {
		if _, err := r.book.Close(sig, sig.Price, sig.Time); err != nil {
			return fmt.Errorf("apply sell: %w", err)
		}
		if r.opts.Recorder != nil {
			history := r.book.History()
			r.opts.Recorder.RecordClose(history[len(history)-1])
		}
	}
	if r.opts.Sink != nil {
		r.opts.Sink.OnSignalAccepted(sig)
	}
	return nil
}

// emit forwards the summary without ever blocking the pipeline.
func (r *Runner) emit(summary TickSummary) {
	if r.opts.Summaries == nil {
		return
	}
	select {
	case r.opts.Summaries <- summary:
	default:
		// observer is behind, drop
	}
}

func (r *Runner) setPositionGauge(open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	metrics.PositionOpen.WithLabelValues(r.opts.Symbol).Set(v)
}
