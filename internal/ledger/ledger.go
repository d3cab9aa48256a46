// Package ledger tracks the single open position and the append-only closed
// trade history for one instrument.
package ledger

import (
	"errors"
	"sync"
	"time"

	"macdbot-go/internal/signal"
)

var (
	// ErrPositionAlreadyOpen is returned by Open while a position is held.
	ErrPositionAlreadyOpen = errors.New("position already open")
	// ErrNoOpenPosition is returned by Close when nothing is held.
	ErrNoOpenPosition = errors.New("no open position")
)

// Status marks a position's lifecycle stage.
type Status string

const (
	// Open means the position has an entry but no exit yet.
	Open Status = "open"
	// Closed means the position's exit has been recorded.
	Closed Status = "closed"
)

// Position pairs one entry with at most one exit.
type Position struct {
	EntrySignal signal.Signal `json:"entry_signal"`
	EntryPrice  float64       `json:"entry_price"`
	EntryTime   time.Time     `json:"entry_time"`
	Quantity    float64       `json:"quantity"`
	Status      Status        `json:"status"`

	ExitSignal  *signal.Signal `json:"exit_signal,omitempty"`
	ExitPrice   float64        `json:"exit_price,omitempty"`
	ExitTime    time.Time      `json:"exit_time,omitempty"`
	RealizedPnL float64        `json:"realized_pnl,omitempty"`
}

// HoldingDuration is the time between entry and exit (zero while open).
func (p Position) HoldingDuration() time.Duration {
	if p.Status != Closed {
		return 0
	}
	return p.ExitTime.Sub(p.EntryTime)
}

// Ledger enforces open/close pairing: at most one open position at any
// point, history append-only and never reordered.
type Ledger struct {
	mu       sync.Mutex
	quantity float64
	open     *Position
	history  []Position
}

// New creates an empty ledger trading the given quantity per position.
func New(quantity float64) *Ledger {
	return &Ledger{quantity: quantity}
}

// Open records a new position from an accepted buy signal.
func (l *Ledger) Open(sig signal.Signal, price float64, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open != nil {
		return ErrPositionAlreadyOpen
	}
	l.open = &Position{
		EntrySignal: sig,
		EntryPrice:  price,
		EntryTime:   at,
		Quantity:    l.quantity,
		Status:      Open,
	}
	return nil
}

// Close settles the open position from an accepted sell signal and appends
// it to the history. Returns the realized pnl.
func (l *Ledger) Close(sig signal.Signal, price float64, at time.Time) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil {
		return 0, ErrNoOpenPosition
	}
	pos := *l.open
	pos.ExitSignal = &sig
	pos.ExitPrice = price
	pos.ExitTime = at
	pos.RealizedPnL = (price - pos.EntryPrice) * pos.Quantity
	pos.Status = Closed

	l.history = append(l.history, pos)
	l.open = nil
	return pos.RealizedPnL, nil
}

// Current returns a copy of the open position, if any.
func (l *Ledger) Current() (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil {
		return Position{}, false
	}
	return *l.open, true
}

// History returns a copy of the closed positions in close order.
func (l *Ledger) History() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Position, len(l.history))
	copy(out, l.history)
	return out
}
