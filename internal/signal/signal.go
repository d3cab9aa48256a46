// Package signal standardizes payloads shared between the scoring, detection, and ledger layers.
package signal

import "time"

// Direction says which side of the market a signal is for.
type Direction string

const (
	// Buy opens a long position.
	Buy Direction = "buy"
	// Sell closes the open long position.
	Sell Direction = "sell"
)

// Component records one rubric check and whether it was satisfied.
type Component struct {
	Name   string  `json:"name"`
	Weight int     `json:"weight"`
	Met    bool    `json:"met"`
	Value  float64 `json:"value"`
}

// Signal expresses a scored crossover candidate produced by the detector.
type Signal struct {
	Time      time.Time   `json:"time"`
	Direction Direction   `json:"direction"`
	Price     float64     `json:"price"`
	Score     int         `json:"score"`
	Breakdown []Component `json:"breakdown"`
}
