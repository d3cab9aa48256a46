package main

import (
	"flag"
	"fmt"
	"os"

	"macdbot-go/internal/backtest"
	"macdbot-go/internal/config"
	"macdbot-go/internal/market"
	"macdbot-go/internal/util"
)

func main() {
	var (
		candlesPath = flag.String("candles", "", "CSV candle file (unix_seconds,open,high,low,close,volume)")
		configPath  = flag.String("config", "", "YAML config with a rubric section (overrides preset)")
		preset      = flag.String("preset", "balanced", "rubric preset: balanced, aggressive, conservative")
		logLevel    = flag.String("log-level", "info", "zerolog level")
	)
	flag.Parse()

	log := util.NewConsoleLogger(*logLevel)

	if *candlesPath == "" {
		log.Fatal().Msg("-candles is required")
	}

	rubric, err := config.Preset(*preset)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve preset")
	}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		rubric = cfg.Rubric
	}
	if err := rubric.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid rubric")
	}

	candles, err := market.ReadCSV(*candlesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load candles")
	}
	log.Info().Int("candles", len(candles)).Int("threshold", rubric.ConfidenceThreshold).Msg("replay starting")

	result, err := backtest.Run(candles, rubric, log)
	if err != nil {
		log.Error().Err(err).Msg("backtest aborted")
		os.Exit(1)
	}

	for _, tr := range result.Trades {
		log.Info().
			Time("entry", tr.EntryTime).
			Time("exit", tr.ExitTime).
			Float64("entry_px", tr.EntryPrice).
			Float64("exit_px", tr.ExitPrice).
			Float64("pnl", tr.RealizedPnL).
			Int("entry_score", tr.EntrySignal.Score).
			Msg("closed trade")
	}
	if result.OpenPosition != nil {
		log.Info().
			Time("entry", result.OpenPosition.EntryTime).
			Float64("entry_px", result.OpenPosition.EntryPrice).
			Msg("position still open at end of history (excluded from stats)")
	}

	s := result.Stats
	fmt.Printf("closed trades: %d\n", s.ClosedTrades)
	fmt.Printf("win rate:      %.1f%%\n", s.WinRate*100)
	fmt.Printf("total pnl:     %.6f\n", s.TotalPnL)
	fmt.Printf("average pnl:   %.6f\n", s.AveragePnL)
	fmt.Printf("avg holding:   %s\n", s.AvgHolding)
	fmt.Printf("rejected:      %d\n", s.Rejected)
}
