// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks fatal configuration problems detected at startup.
var ErrInvalid = errors.New("invalid config")

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Market describes the data provider the live engine polls.
type Market struct {
	Symbols   []string `yaml:"symbols"`
	Interval  string   `yaml:"interval"`
	BaseURL   string   `yaml:"base_url"`
	StreamURL string   `yaml:"stream_url"`
}

// Weights assigns rubric points per confirmation component. The five core
// confirmations must sum to exactly 100; Trend is a bonus awarded on top,
// with the final score capped at 100.
type Weights struct {
	Volume      int `yaml:"volume"`
	VolumeTrend int `yaml:"volume_trend"`
	RSI         int `yaml:"rsi"`
	Bollinger   int `yaml:"bollinger"`
	OBV         int `yaml:"obv"`
	Trend       int `yaml:"trend"`
}

// Sum totals the five core confirmation weights. Trend is excluded: it is a
// bonus, not part of the 100-point core.
func (w Weights) Sum() int {
	return w.Volume + w.VolumeTrend + w.RSI + w.Bollinger + w.OBV
}

// Periods groups every indicator lookback the engine computes.
type Periods struct {
	MACDFast      int     `yaml:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal"`
	RSI           int     `yaml:"rsi"`
	Bollinger     int     `yaml:"bollinger"`
	BollingerK    float64 `yaml:"bollinger_k"`
	VolumeSMA     int     `yaml:"volume_sma"`
	TrendLookback int     `yaml:"trend_lookback"`
	MAFast        int     `yaml:"ma_fast"`
	MASlow        int     `yaml:"ma_slow"`
}

// WarmUp reports the minimum candle history before every frame field is defined.
func (p Periods) WarmUp() int {
	warm := p.MACDSlow + p.MACDSignal
	for _, n := range []int{p.Bollinger, p.RSI + 1, p.VolumeSMA, p.MASlow} {
		if n > warm {
			warm = n
		}
	}
	return warm + p.TrendLookback
}

// Rubric parameterizes one detector pipeline: scoring weights, acceptance
// threshold, indicator periods, and trade sizing.
type Rubric struct {
	Weights             Weights `yaml:"weights"`
	ConfidenceThreshold int     `yaml:"confidence_threshold"`
	Periods             Periods `yaml:"periods"`
	Quantity            float64 `yaml:"quantity"`
	ReportInapplicable  bool    `yaml:"report_inapplicable"`
}

// Validate rejects rubrics that could silently distort scoring.
func (r Rubric) Validate() error {
	if sum := r.Weights.Sum(); sum != 100 {
		return fmt.Errorf("%w: core rubric weights sum to %d, want 100", ErrInvalid, sum)
	}
	if r.Weights.Trend < 0 {
		return fmt.Errorf("%w: trend bonus must not be negative", ErrInvalid)
	}
	if r.ConfidenceThreshold < 0 || r.ConfidenceThreshold > 100 {
		return fmt.Errorf("%w: confidence threshold %d outside [0,100]", ErrInvalid, r.ConfidenceThreshold)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
	}
	p := r.Periods
	for name, n := range map[string]int{
		"macd_fast":      p.MACDFast,
		"macd_slow":      p.MACDSlow,
		"macd_signal":    p.MACDSignal,
		"rsi":            p.RSI,
		"bollinger":      p.Bollinger,
		"volume_sma":     p.VolumeSMA,
		"trend_lookback": p.TrendLookback,
		"ma_fast":        p.MAFast,
		"ma_slow":        p.MASlow,
	} {
		if n <= 0 {
			return fmt.Errorf("%w: period %s must be positive", ErrInvalid, name)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd_fast must be shorter than macd_slow", ErrInvalid)
	}
	if p.MAFast >= p.MASlow {
		return fmt.Errorf("%w: ma_fast must be shorter than ma_slow", ErrInvalid)
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("%w: bollinger_k must be positive", ErrInvalid)
	}
	return nil
}

// Live tunes the polling runner.
type Live struct {
	Provider         string `yaml:"provider"`
	PollIntervalMS   int    `yaml:"poll_interval_ms"`
	FetchTimeoutMS   int    `yaml:"fetch_timeout_ms"`
	MaxFetchFailures int    `yaml:"max_fetch_failures"`
	WindowMargin     int    `yaml:"window_margin"`
	RecordPath       string `yaml:"record_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App    App    `yaml:"app"`
	Market Market `yaml:"market"`
	Rubric Rubric `yaml:"rubric"`
	Live   Live   `yaml:"live"`
}

// Validate checks the whole tree; any failure is fatal at startup.
func (c *Config) Validate() error {
	if err := c.Rubric.Validate(); err != nil {
		return err
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("%w: at least one symbol required", ErrInvalid)
	}
	if c.Market.Interval == "" {
		return fmt.Errorf("%w: market interval required", ErrInvalid)
	}
	if c.Live.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: poll_interval_ms must be positive", ErrInvalid)
	}
	if c.Live.MaxFetchFailures <= 0 {
		return fmt.Errorf("%w: max_fetch_failures must be positive", ErrInvalid)
	}
	if c.Live.WindowMargin < 0 {
		return fmt.Errorf("%w: window_margin must not be negative", ErrInvalid)
	}
	return nil
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
