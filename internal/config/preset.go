package config

import "fmt"

// defaultPeriods are the lookbacks shared by every preset.
func defaultPeriods() Periods {
	return Periods{
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		RSI:           14,
		Bollinger:     20,
		BollingerK:    2.0,
		VolumeSMA:     20,
		TrendLookback: 3,
		MAFast:        20,
		MASlow:        50,
	}
}

func defaultWeights() Weights {
	return Weights{Volume: 30, VolumeTrend: 25, RSI: 20, Bollinger: 15, OBV: 10, Trend: 5}
}

// Preset returns a named rubric. The historical strategy variants collapsed
// into presets of one pipeline: same weights, different acceptance bars.
func Preset(name string) (Rubric, error) {
	base := Rubric{
		Weights:  defaultWeights(),
		Periods:  defaultPeriods(),
		Quantity: 0.001,
	}
	switch name {
	case "", "balanced":
		base.ConfidenceThreshold = 80
	case "aggressive":
		base.ConfidenceThreshold = 70
	case "conservative":
		base.ConfidenceThreshold = 90
	default:
		return Rubric{}, fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
	}
	return base, nil
}
