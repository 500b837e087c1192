// Package dataset loads bar series from CSV files and generates
// deterministic synthetic series for demos and tests.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

// csvColumns is the expected layout: time,open,high,low,close,volume.
const csvColumns = 6

var timeLayouts = []string{time.RFC3339, "2006-01-02"}

// LoadCSV reads a bar series from a CSV file. The header row is
// optional; timestamps are RFC 3339 or plain dates. The series is
// validated before it is returned.
func LoadCSV(path string) ([]core.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidInput, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a bar series from CSV content.
func ReadCSV(r io.Reader) ([]core.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = csvColumns
	reader.TrimLeadingSpace = true

	var bars []core.Bar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapErrorf(core.ErrInvalidInput, "csv line %d: %v", line+1, err)
		}
		line++

		bar, err := parseRecord(record)
		if err != nil {
			// The first row may be a header.
			if line == 1 {
				continue
			}
			return nil, core.WrapErrorf(core.ErrInvalidInput, "csv line %d: %v", line, err)
		}
		bars = append(bars, bar)
	}

	if err := core.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// WriteCSV writes a bar series to a CSV file with a header row.
func WriteCSV(path string, bars []core.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	for _, b := range bars {
		record := []string{
			b.Time.Format(time.RFC3339),
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(record); err != nil {
			return core.WrapError(core.ErrStorageFailed, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func parseRecord(record []string) (core.Bar, error) {
	t, err := ParseTime(record[0])
	if err != nil {
		return core.Bar{}, err
	}

	var prices [4]float64
	for i, field := range record[1:5] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return core.Bar{}, err
		}
		prices[i] = v
	}

	volume, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return core.Bar{}, err
	}

	return core.Bar{
		Time:   t,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}, nil
}

// ParseTime parses a timestamp in RFC 3339 or plain date form.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
