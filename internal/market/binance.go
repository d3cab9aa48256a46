package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBinanceBaseURL = "https://api.binance.com"

// BinanceProvider fetches klines over the public REST API.
type BinanceProvider struct {
	baseURL string
	client  *http.Client
}

// BinanceOption configures provider construction.
type BinanceOption func(*BinanceProvider)

// WithBaseURL overrides the REST endpoint (testnets, local fakes).
func WithBaseURL(url string) BinanceOption {
	return func(p *BinanceProvider) {
		if url != "" {
			p.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) BinanceOption {
	return func(p *BinanceProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// NewBinanceProvider builds a REST kline provider.
func NewBinanceProvider(opts ...BinanceOption) *BinanceProvider {
	p := &BinanceProvider{
		baseURL: defaultBinanceBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetCandles fetches up to limit most recent closed candles in chronological
// order. The exchange always includes the still-forming kline as the last
// element; it is fetched and dropped so only final values leave the provider.
func (p *BinanceProvider) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		p.baseURL, strings.ToUpper(symbol), interval, limit+1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build klines request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch klines: unexpected status %d", resp.StatusCode)
	}

	var raw [][]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	out := make([]Candle, 0, len(raw))
	for _, k := range raw {
		c, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if len(out) > 0 {
		out = out[:len(out)-1] // forming kline
	}
	return out, nil
}

// GetLatestCandle fetches the most recent closed candle.
func (p *BinanceProvider) GetLatestCandle(ctx context.Context, symbol, interval string) (Candle, error) {
	candles, err := p.GetCandles(ctx, symbol, interval, 1)
	if err != nil {
		return Candle{}, err
	}
	if len(candles) == 0 {
		return Candle{}, fmt.Errorf("fetch klines: empty response")
	}
	return candles[len(candles)-1], nil
}

// parseKline decodes one element of Binance's array-encoded kline payload:
// [openTime, open, high, low, close, volume, ...].
func parseKline(k []any) (Candle, error) {
	if len(k) < 6 {
		return Candle{}, fmt.Errorf("decode klines: short kline entry")
	}
	openMillis, ok := k[0].(float64)
	if !ok {
		return Candle{}, fmt.Errorf("decode klines: bad open time")
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return Candle{}, fmt.Errorf("decode klines: field %d not a string", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, fmt.Errorf("decode klines: %w", err)
		}
		fields[i-1] = v
	}
	return Candle{
		Time:   time.UnixMilli(int64(openMillis)).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
