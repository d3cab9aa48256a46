// Package detector turns ordered indicator frames into accept/reject trading
// decisions via a two-state machine gated on the confidence rubric.
package detector

import (
	"github.com/rs/zerolog"

	"macdbot-go/internal/config"
	"macdbot-go/internal/indicator"
	"macdbot-go/internal/score"
	"macdbot-go/internal/signal"
)

// State is the detector's position hypothesis.
type State string

const (
	// Flat means no position is held; only buy candidates are applicable.
	Flat State = "flat"
	// Holding means a position is open; only sell candidates are applicable.
	Holding State = "holding"
)

// Outcome classifies what happened to a candidate crossover.
type Outcome string

const (
	// Accepted means the candidate scored at or above the threshold.
	Accepted Outcome = "accepted"
	// Rejected means the candidate scored below the threshold.
	Rejected Outcome = "rejected"
	// Inapplicable means the trigger arose in the wrong state; no score was computed.
	Inapplicable Outcome = "inapplicable"
)

// Decision records the evaluation of one candidate crossover.
type Decision struct {
	Signal  signal.Signal
	Outcome Outcome
	State   State // state after the decision was applied
}

// Detector consumes frames in chronological order. It holds the previous
// frame internally, so callers feed each frame exactly once.
type Detector struct {
	rubric   config.Rubric
	log      zerolog.Logger
	state    State
	prev     indicator.Frame
	havePrev bool
}

// New creates a detector starting flat.
func New(rubric config.Rubric, log zerolog.Logger) *Detector {
	return &Detector{rubric: rubric, log: log, state: Flat}
}

// State returns the current machine state.
func (d *Detector) State() State { return d.state }

// Prime records a frame as crossover context without evaluating it. Used
// when seeding from history: no decision is made, state never changes, so
// a runner always starts its live ticks flat.
func (d *Detector) Prime(f indicator.Frame) {
	d.prev = f
	d.havePrev = true
}

// OnFrame evaluates one frame. It returns nil when the frame carries no
// candidate crossover, otherwise the decision made for it.
func (d *Detector) OnFrame(cur indicator.Frame) *Decision {
	if !d.havePrev {
		d.prev = cur
		d.havePrev = true
		return nil
	}
	prev := d.prev
	d.prev = cur

	var direction signal.Direction
	switch {
	case buyCrossover(prev, cur):
		direction = signal.Buy
	case sellCrossover(prev, cur):
		direction = signal.Sell
	default:
		return nil
	}

	wantState := Flat
	if direction == signal.Sell {
		wantState = Holding
	}
	if d.state != wantState {
		d.log.Debug().
			Str("direction", string(direction)).
			Str("state", string(d.state)).
			Time("candle", cur.Time).
			Msg("crossover inapplicable in current state")
		if !d.rubric.ReportInapplicable {
			return nil
		}
		return &Decision{
			Signal:  signal.Signal{Time: cur.Time, Direction: direction, Price: cur.Close},
			Outcome: Inapplicable,
			State:   d.state,
		}
	}

	result := score.Score(cur, direction, d.rubric)
	sig := signal.Signal{
		Time:      cur.Time,
		Direction: direction,
		Price:     cur.Close,
		Score:     result.Score,
		Breakdown: result.Breakdown,
	}

	if result.Score < d.rubric.ConfidenceThreshold {
		d.log.Info().
			Str("direction", string(direction)).
			Int("score", result.Score).
			Int("threshold", d.rubric.ConfidenceThreshold).
			Float64("price", cur.Close).
			Time("candle", cur.Time).
			Msg("candidate rejected")
		return &Decision{Signal: sig, Outcome: Rejected, State: d.state}
	}

	if direction == signal.Buy {
		d.state = Holding
	} else {
		d.state = Flat
	}
	d.log.Info().
		Str("direction", string(direction)).
		Int("score", result.Score).
		Float64("price", cur.Close).
		Time("candle", cur.Time).
		Msg("candidate accepted")
	return &Decision{Signal: sig, Outcome: Accepted, State: d.state}
}

// buyCrossover holds when MACD crosses its signal line from below while both
// remain under the zero line.
func buyCrossover(prev, cur indicator.Frame) bool {
	return prev.MACDHist < 0 &&
		prev.MACD <= prev.MACDSignal &&
		cur.MACD > cur.MACDSignal &&
		cur.MACD < 0 &&
		cur.MACDSignal < 0
}

// sellCrossover is the mirror image above the zero line.
func sellCrossover(prev, cur indicator.Frame) bool {
	return prev.MACDHist > 0 &&
		prev.MACD >= prev.MACDSignal &&
		cur.MACDSignal > cur.MACD &&
		cur.MACD > 0 &&
		cur.MACDSignal > 0
}
