package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"macdbot-go/internal/signal"
)

func TestJSONLRecorderAppendsCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades", "out.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder: %v", err)
	}

	book := New(0.25)
	entry := time.Unix(1000, 0).UTC()
	exit := entry.Add(time.Hour)
	book.Open(signal.Signal{Time: entry, Direction: signal.Buy, Price: 100, Score: 85}, 100, entry)
	book.Close(signal.Signal{Time: exit, Direction: signal.Sell, Price: 120, Score: 82}, 120, exit)

	for _, pos := range book.History() {
		rec.RecordClose(pos)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one record line")
	}
	var record TradeRecord
	if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record.Direction != signal.Sell || record.PnL != 5 || record.Confidence != 82 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Quantity != 0.25 || record.Price != 120 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if scanner.Scan() {
		t.Fatalf("expected exactly one record")
	}
}

func TestRecordCloseIgnoresOpenPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder: %v", err)
	}
	rec.RecordClose(Position{Status: Open})
	rec.Close()

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Fatalf("open position must not be recorded, got %q", data)
	}
}
