package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"macdbot-go/internal/signal"
)

// TradeRecord is the persisted form of one closed trade, consumed by
// external reporting.
type TradeRecord struct {
	Time       time.Time        `json:"time"`
	Direction  signal.Direction `json:"direction"`
	Price      float64          `json:"price"`
	Quantity   float64          `json:"quantity"`
	Confidence int              `json:"confidence"`
	PnL        float64          `json:"pnl"`
}

// JSONLRecorder appends trade records as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{file: file, enc: json.NewEncoder(file)}, nil
}

// RecordClose writes the closing side of a settled position.
func (r *JSONLRecorder) RecordClose(pos Position) {
	if pos.Status != Closed || pos.ExitSignal == nil {
		return
	}
	r.record(TradeRecord{
		Time:       pos.ExitTime,
		Direction:  pos.ExitSignal.Direction,
		Price:      pos.ExitPrice,
		Quantity:   pos.Quantity,
		Confidence: pos.ExitSignal.Score,
		PnL:        pos.RealizedPnL,
	})
}

func (r *JSONLRecorder) record(rec TradeRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(rec)
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
