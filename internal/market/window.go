package market

// Window is a bounded rolling candle buffer. Append discards the oldest
// candle once capacity is reached. Single-writer: the owning runner is the
// only goroutine that mutates it, so no lock is needed.
type Window struct {
	capacity int
	candles  []Candle
}

// NewWindow creates a window holding at most capacity candles.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{capacity: capacity, candles: make([]Candle, 0, capacity)}
}

// Append validates the candle against the newest one and stores it,
// evicting the oldest entry when full.
func (w *Window) Append(c Candle) error {
	var prev *Candle
	if n := len(w.candles); n > 0 {
		prev = &w.candles[n-1]
	}
	if err := Validate(prev, c); err != nil {
		return err
	}
	if len(w.candles) == w.capacity {
		copy(w.candles, w.candles[1:])
		w.candles = w.candles[:w.capacity-1]
	}
	w.candles = append(w.candles, c)
	return nil
}

// Len reports how many candles are currently buffered.
func (w *Window) Len() int { return len(w.candles) }

// Last returns the newest candle, if any.
func (w *Window) Last() (Candle, bool) {
	if len(w.candles) == 0 {
		return Candle{}, false
	}
	return w.candles[len(w.candles)-1], true
}

// Snapshot returns a copy of the buffered candles in chronological order.
func (w *Window) Snapshot() []Candle {
	out := make([]Candle, len(w.candles))
	copy(out, w.candles)
	return out
}
