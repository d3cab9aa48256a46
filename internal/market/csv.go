package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// ReadCSV loads candles from a file with rows of
// "unix_seconds,open,high,low,close,volume". A header row is skipped when the
// first field does not parse as a number.
func ReadCSV(path string) ([]Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles: %w", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func parseCSV(r io.Reader) ([]Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	var out []Candle
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read candles line %d: %w", line, err)
		}
		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("read candles line %d: bad timestamp %q", line, record[0])
		}
		fields := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			fields[i-1], err = strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("read candles line %d: %w", line, err)
			}
		}
		out = append(out, Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}
	return out, nil
}
