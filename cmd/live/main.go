package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"macdbot-go/internal/config"
	"macdbot-go/internal/ledger"
	"macdbot-go/internal/live"
	"macdbot-go/internal/market"
	"macdbot-go/internal/metrics"
	"macdbot-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = godotenv.Load() // best-effort

	path := os.Getenv("MACDBOT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	log := util.NewLogger("info")

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var recorder *ledger.JSONLRecorder
	if cfg.Live.RecordPath != "" {
		recorder, err = ledger.NewJSONLRecorder(cfg.Live.RecordPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open trade recorder")
		}
		defer recorder.Close()
	}

	summaries := make(chan live.TickSummary, 256)
	go logSummaries(ctx, log, summaries)

	// One independent engine/detector/ledger triple per symbol, shared nothing.
	var wg sync.WaitGroup
	for _, symbol := range cfg.Market.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			if err := runSymbol(ctx, cfg, symbol, recorder, summaries, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("symbol", symbol).Msg("runner stopped")
				cancel()
			}
		}(symbol)
	}

	log.Info().Strs("symbols", cfg.Market.Symbols).Str("provider", cfg.Live.Provider).Msg("live engine started")
	wg.Wait()
	log.Info().Msg("shutting down")
}

func runSymbol(ctx context.Context, cfg *config.Config, symbol string, recorder *ledger.JSONLRecorder, summaries chan<- live.TickSummary, log zerolog.Logger) error {
	symLog := log.With().Str("symbol", symbol).Logger()

	var provider market.Provider
	switch cfg.Live.Provider {
	case "stub":
		provider = market.NewStubProvider(time.Duration(cfg.Live.PollIntervalMS) * time.Millisecond)
	default:
		provider = market.NewBinanceProvider(market.WithBaseURL(cfg.Market.BaseURL))
	}

	runner, err := live.NewRunner(live.Options{
		Symbol:           symbol,
		Interval:         cfg.Market.Interval,
		Rubric:           cfg.Rubric,
		Provider:         provider,
		Sink:             live.NewLogSink(symbol, symLog),
		Recorder:         recorder,
		Summaries:        summaries,
		Log:              symLog,
		PollInterval:     time.Duration(cfg.Live.PollIntervalMS) * time.Millisecond,
		FetchTimeout:     time.Duration(cfg.Live.FetchTimeoutMS) * time.Millisecond,
		MaxFetchFailures: cfg.Live.MaxFetchFailures,
		WindowMargin:     cfg.Live.WindowMargin,
	})
	if err != nil {
		return err
	}

	if cfg.Live.Provider == "binance-ws" {
		stream := market.NewStream(cfg.Market.StreamURL, symbol, cfg.Market.Interval, symLog)
		candles := make(chan market.Candle, 64)
		go func() {
			if err := stream.Run(ctx, candles); err != nil && !errors.Is(err, context.Canceled) {
				symLog.Error().Err(err).Msg("kline stream stopped")
			}
			close(candles)
		}()
		return runner.RunStream(ctx, candles)
	}
	return runner.Run(ctx)
}

func logSummaries(ctx context.Context, log zerolog.Logger, summaries <-chan live.TickSummary) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-summaries:
			if s.Skipped {
				log.Warn().Str("symbol", s.Symbol).Str("reason", s.SkipReason).Msg("tick skipped")
				continue
			}
			ev := log.Debug().Str("symbol", s.Symbol).Int("new_candles", s.NewCandles).Bool("position_open", s.PositionOpen)
			if s.Decision != nil {
				ev = ev.Str("decision", string(s.Decision.Outcome)).Int("score", s.Decision.Signal.Score)
			}
			ev.Msg("tick")
		}
	}
}
