package indicator

// rsi computes the Relative Strength Index from simple rolling averages of
// gains and losses. Wilder smoothing was the alternative; the rolling average
// is kept because it matches the fixtures this engine is validated against.
type rsi struct {
	period    int
	count     int
	prevClose float64
	gains     *ring
	losses    *ring
	current   float64
}

func newRSI(period int) *rsi {
	return &rsi{period: period, gains: newRing(period), losses: newRing(period)}
}

func (r *rsi) update(close float64) {
	r.count++
	if r.count == 1 {
		r.prevClose = close
		return
	}
	delta := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	r.gains.push(gain)
	r.losses.push(loss)

	if !r.gains.full() {
		return
	}
	avgLoss := r.losses.mean()
	if avgLoss == 0 {
		r.current = 100.0
		return
	}
	rs := r.gains.mean() / avgLoss
	r.current = 100.0 - 100.0/(1.0+rs)
}

func (r *rsi) ready() bool    { return r.count > r.period }
func (r *rsi) value() float64 { return r.current }
