// Package market hosts candle types, ingestion validation, and data providers.
package market

import (
	"fmt"
	"math"
	"time"
)

// Candle is one OHLCV bar. Immutable once produced.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// DataError reports a malformed candle rejected at ingestion.
type DataError struct {
	Time   time.Time
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bad candle at %s: %s", e.Time.Format(time.RFC3339), e.Reason)
}

// Validate checks a candle against its predecessor. prev may be nil for the
// first candle of a sequence. Returns a *DataError on rejection.
func Validate(prev *Candle, c Candle) error {
	switch {
	case c.Time.IsZero():
		return &DataError{Time: c.Time, Reason: "zero timestamp"}
	case prev != nil && !c.Time.After(prev.Time):
		return &DataError{Time: c.Time, Reason: "timestamp not after previous candle"}
	case c.Volume < 0:
		return &DataError{Time: c.Time, Reason: "negative volume"}
	case c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0:
		return &DataError{Time: c.Time, Reason: "non-positive price"}
	case c.Low > c.High:
		return &DataError{Time: c.Time, Reason: "low above high"}
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DataError{Time: c.Time, Reason: "non-finite value"}
		}
	}
	return nil
}
