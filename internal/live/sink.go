package live

import (
	"github.com/rs/zerolog"

	"macdbot-go/internal/signal"
)

// LogSink logs accepted signals where an order executor would submit them.
type LogSink struct {
	symbol string
	log    zerolog.Logger
}

// NewLogSink wraps a zerolog logger for signal forwarding.
func NewLogSink(symbol string, log zerolog.Logger) *LogSink {
	return &LogSink{symbol: symbol, log: log}
}

// OnSignalAccepted logs the signal request; wire real order placement here.
func (s *LogSink) OnSignalAccepted(sig signal.Signal) {
	s.log.Info().
		Str("sym", s.symbol).
		Str("side", string(sig.Direction)).
		Int("score", sig.Score).
		Float64("px", sig.Price).
		Time("candle", sig.Time).
		Msg("signal accepted (forwarding stub)")
}
