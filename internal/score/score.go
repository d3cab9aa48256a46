// Package score grades a crossover candidate against the weighted
// confirmation rubric. Pure functions, safe to call speculatively.
package score

import (
	"macdbot-go/internal/config"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/signal"
)

// Volume confirmation threshold, shared by both directions.
const volumeRatioMin = 1.4

// Asymmetric volume-trend bounds: buys need a clear surge, sells tolerate a
// mild fade since distribution rarely spikes volume the way accumulation does.
const (
	buyVolumeTrendMin  = 0.15
	sellVolumeTrendMin = -0.10
)

// RSI band avoiding entries at extremes.
const (
	rsiLow  = 35.0
	rsiHigh = 65.0
)

// Normalized Bollinger position bands per direction.
const (
	buyBBLow   = 0.15
	buyBBHigh  = 0.50
	sellBBLow  = 0.50
	sellBBHigh = 0.85
)

// Result is a confidence score in [0,100] with its component breakdown.
type Result struct {
	Score     int
	Breakdown []signal.Component
}

// Score evaluates one frame for the given direction. Each component is
// all-or-nothing: credit equals the configured weight when the check passes.
// The five core confirmations carry 100 points between them; trend is a
// bonus on top, with the total capped at 100.
func Score(frame indicator.Frame, direction signal.Direction, rubric config.Rubric) Result {
	buy := direction == signal.Buy
	w := rubric.Weights

	volumeTrendOK := frame.VolumeTrendPct > buyVolumeTrendMin
	if !buy {
		volumeTrendOK = frame.VolumeTrendPct > sellVolumeTrendMin
	}

	bbPos := frame.BBPosition()
	bbOK := bbPos >= buyBBLow && bbPos <= buyBBHigh
	if !buy {
		bbOK = bbPos >= sellBBLow && bbPos <= sellBBHigh
	}

	obvOK := frame.OBVTrend > 0
	if !buy {
		obvOK = frame.OBVTrend < 0
	}

	trendOK := frame.MAFast > frame.MASlow
	if !buy {
		trendOK = frame.MAFast < frame.MASlow
	}

	breakdown := []signal.Component{
		{Name: "volume", Weight: w.Volume, Met: frame.VolumeRatio >= volumeRatioMin, Value: frame.VolumeRatio},
		{Name: "volume_trend", Weight: w.VolumeTrend, Met: volumeTrendOK, Value: frame.VolumeTrendPct},
		{Name: "rsi", Weight: w.RSI, Met: frame.RSI >= rsiLow && frame.RSI <= rsiHigh, Value: frame.RSI},
		{Name: "bollinger", Weight: w.Bollinger, Met: bbOK, Value: bbPos},
		{Name: "obv", Weight: w.OBV, Met: obvOK, Value: frame.OBVTrend},
		{Name: "trend", Weight: w.Trend, Met: trendOK, Value: frame.MAFast - frame.MASlow},
	}

	total := 0
	for _, c := range breakdown {
		if c.Met {
			total += c.Weight
		}
	}
	if total > 100 {
		total = 100
	}
	return Result{Score: total, Breakdown: breakdown}
}

// Adjust applies a bounded advisory modifier to a score. The result is
// clamped to [0,100]; an advisor can nudge a score, never replace it.
func Adjust(score, modifier, bound int) int {
	if modifier > bound {
		modifier = bound
	}
	if modifier < -bound {
		modifier = -bound
	}
	adjusted := score + modifier
	if adjusted < 0 {
		return 0
	}
	if adjusted > 100 {
		return 100
	}
	return adjusted
}
