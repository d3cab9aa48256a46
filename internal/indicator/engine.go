// Package indicator derives per-candle technical indicator frames from a
// candle stream. Updates are O(1) per candle; no history scans.
package indicator

import (
	"time"

	"macdbot-go/internal/config"
	"macdbot-go/internal/market"
)

// Frame holds every derived indicator for one candle. A Frame is only emitted
// once the warm-up history is complete, so all fields are always defined.
type Frame struct {
	Time  time.Time
	Close float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	RSI float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	OBV      float64
	OBVTrend float64

	VolumeRatio    float64
	VolumeTrendPct float64

	MAFast float64
	MASlow float64
}

// BBPosition is the close's normalized position inside the bands:
// 0 at the lower band, 1 at the upper. Returns 0.5 when the bands collapse.
func (f Frame) BBPosition() float64 {
	width := f.BBUpper - f.BBLower
	if width <= 0 {
		return 0.5
	}
	return (f.Close - f.BBLower) / width
}

// Engine incrementally computes frames from an ordered candle stream.
// Deterministic: identical candle sequences yield identical frames. Designed
// for single-goroutine usage, no locks needed.
type Engine struct {
	periods config.Periods
	warmup  int
	count   int

	emaFast   *ema
	emaSlow   *ema
	emaSignal *ema

	rsi *rsi

	closes  *ring // Bollinger window
	volumes *ring
	maFast  *ring
	maSlow  *ring

	obv       float64
	prevClose float64
	haveClose bool

	volRatios  *ring // volume_ratio history for the trend lookback
	obvHistory *ring
}

// NewEngine creates an engine for the given periods.
func NewEngine(p config.Periods) *Engine {
	return &Engine{
		periods:    p,
		warmup:     p.WarmUp(),
		emaFast:    newEMA(p.MACDFast),
		emaSlow:    newEMA(p.MACDSlow),
		emaSignal:  newEMA(p.MACDSignal),
		rsi:        newRSI(p.RSI),
		closes:     newRing(p.Bollinger),
		volumes:    newRing(p.VolumeSMA),
		maFast:     newRing(p.MAFast),
		maSlow:     newRing(p.MASlow),
		volRatios:  newRing(p.TrendLookback + 1),
		obvHistory: newRing(p.TrendLookback + 1),
	}
}

// WarmUp reports the history length needed before Update emits frames.
func (e *Engine) WarmUp() int { return e.warmup }

// Update feeds one candle. ok is false until warm-up completes; such frames
// must not be consumed. Candle validation is the caller's concern.
func (e *Engine) Update(c market.Candle) (Frame, bool) {
	e.count++

	e.emaFast.update(c.Close)
	e.emaSlow.update(c.Close)

	var macd, macdSignal float64
	if e.emaSlow.ready() {
		macd = e.emaFast.value() - e.emaSlow.value()
		e.emaSignal.update(macd)
		macdSignal = e.emaSignal.value()
	}

	e.rsi.update(c.Close)
	e.closes.push(c.Close)
	e.maFast.push(c.Close)
	e.maSlow.push(c.Close)
	e.volumes.push(c.Volume)

	if e.haveClose {
		switch {
		case c.Close > e.prevClose:
			e.obv += c.Volume
		case c.Close < e.prevClose:
			e.obv -= c.Volume
		}
	}
	e.prevClose = c.Close
	e.haveClose = true
	e.obvHistory.push(e.obv)

	var volumeRatio float64
	if e.volumes.full() {
		if avg := e.volumes.mean(); avg > 0 {
			volumeRatio = c.Volume / avg
		}
		e.volRatios.push(volumeRatio)
	}

	if e.count < e.warmup {
		return Frame{}, false
	}

	middle := e.closes.mean()
	dev := e.closes.std() * e.periods.BollingerK

	frame := Frame{
		Time:           c.Time,
		Close:          c.Close,
		MACD:           macd,
		MACDSignal:     macdSignal,
		MACDHist:       macd - macdSignal,
		RSI:            e.rsi.value(),
		BBUpper:        middle + dev,
		BBMiddle:       middle,
		BBLower:        middle - dev,
		OBV:            e.obv,
		OBVTrend:       e.obv - e.obvHistory.oldest(),
		VolumeRatio:    volumeRatio,
		VolumeTrendPct: volumeTrend(e.volRatios),
		MAFast:         e.maFast.mean(),
		MASlow:         e.maSlow.mean(),
	}
	return frame, true
}

// volumeTrend is the fractional change of volume_ratio across the lookback.
func volumeTrend(ratios *ring) float64 {
	if !ratios.full() {
		return 0
	}
	oldest := ratios.oldest()
	if oldest == 0 {
		return 0
	}
	newest := ratios.at(ratios.size - 1)
	return (newest - oldest) / oldest
}

// Compute runs a fresh engine over the whole window and returns the frame for
// its final candle. ok is false when the window is shorter than warm-up.
func Compute(window []market.Candle, p config.Periods) (Frame, bool) {
	engine := NewEngine(p)
	var (
		frame Frame
		ok    bool
	)
	for _, c := range window {
		frame, ok = engine.Update(c)
	}
	return frame, ok
}
