package market

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const defaultBinanceStreamURL = "wss://stream.binance.com:9443"

// Stream consumes Binance kline websockets and pushes closed candles onto a
// channel. It reconnects with capped backoff until the context is canceled.
type Stream struct {
	url      string
	symbol   string
	interval string
	log      zerolog.Logger
}

// NewStream builds a kline stream for one symbol and interval.
func NewStream(baseURL, symbol, interval string, log zerolog.Logger) *Stream {
	if baseURL == "" {
		baseURL = defaultBinanceStreamURL
	}
	return &Stream{
		url:      strings.TrimSuffix(baseURL, "/"),
		symbol:   strings.ToLower(symbol),
		interval: interval,
		log:      log,
	}
}

type klineEnvelope struct {
	Data klineEvent `json:"data"`
}

type klineEvent struct {
	Kline klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTime int64  `json:"t"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}

// Run pushes closed candles onto out until the context is canceled.
func (s *Stream) Run(ctx context.Context, out chan<- Candle) error {
	url := fmt.Sprintf("%s/stream?streams=%s@kline_%s", s.url, s.symbol, s.interval)
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("kline stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *Stream) consume(ctx context.Context, url string, out chan<- Candle) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("symbol", s.symbol).Str("interval", s.interval).Msg("connected kline stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(3 * time.Minute))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(3 * time.Minute))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var env klineEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(3 * time.Minute))
		if !env.Data.Kline.Closed {
			continue
		}
		candle, err := env.Data.Kline.toCandle()
		if err != nil {
			s.log.Warn().Err(err).Msg("skipping malformed kline")
			continue
		}
		select {
		case out <- candle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (k klinePayload) toCandle() (Candle, error) {
	fields := [5]float64{}
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Candle{}, fmt.Errorf("parse kline field: %w", err)
		}
		fields[i] = v
	}
	return Candle{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
