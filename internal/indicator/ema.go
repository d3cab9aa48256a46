package indicator

// ema is an exponential moving average with smoothing 2/(n+1), recursively
// seeded by a simple moving average over the first n samples.
type ema struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

func newEMA(period int) *ema {
	return &ema{period: period, multiplier: 2.0 / float64(period+1)}
}

func (e *ema) update(v float64) {
	e.count++
	if e.count <= e.period {
		e.sum += v
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}
	e.current = v*e.multiplier + e.current*(1-e.multiplier)
}

func (e *ema) ready() bool    { return e.count >= e.period }
func (e *ema) value() float64 { return e.current }
