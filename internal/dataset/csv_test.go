package dataset

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

func TestReadCSV_WithHeader(t *testing.T) {
	in := strings.NewReader(
		"time,open,high,low,close,volume\n" +
			"2024-01-02T15:00:00Z,10.00,10.30,9.90,10.20,1000000\n" +
			"2024-01-03T15:00:00Z,10.20,10.60,10.10,10.50,1200000\n")

	bars, err := ReadCSV(in)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	first := bars[0]
	if !first.Time.Equal(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", first.Time)
	}
	if first.Open != 10.00 || first.High != 10.30 || first.Low != 9.90 || first.Close != 10.20 {
		t.Errorf("unexpected prices %+v", first)
	}
	if first.Volume != 1000000 {
		t.Errorf("unexpected volume %d", first.Volume)
	}
}

func TestReadCSV_WithoutHeader(t *testing.T) {
	in := strings.NewReader(
		"2024-01-02,10.00,10.30,9.90,10.20,1000000\n" +
			"2024-01-03,10.20,10.60,10.10,10.50,1200000\n")

	bars, err := ReadCSV(in)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if got := bars[1].Time.Format("2006-01-02"); got != "2024-01-03" {
		t.Errorf("unexpected date %s", got)
	}
}

func TestReadCSV_BadData(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{
			name: "unparseable price",
			in: "2024-01-02,10.00,10.30,9.90,10.20,1000000\n" +
				"2024-01-03,abc,10.60,10.10,10.50,1200000\n",
		},
		{
			name: "wrong column count",
			in: "2024-01-02,10.00,10.30,9.90,10.20,1000000\n" +
				"2024-01-03,10.20,10.60,10.10\n",
		},
		{
			name: "bad date past header row",
			in: "2024-01-02,10.00,10.30,9.90,10.20,1000000\n" +
				"not-a-date,10.20,10.60,10.10,10.50,1200000\n",
		},
		{
			name: "descending timestamps",
			in: "2024-01-03,10.20,10.60,10.10,10.50,1200000\n" +
				"2024-01-02,10.00,10.30,9.90,10.20,1000000\n",
		},
		{
			name: "fractional volume",
			in:   "2024-01-02,10.00,10.30,9.90,10.20,1000.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			if !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	in := strings.NewReader("time,open,high,low,close,volume\n")

	_, err := ReadCSV(in)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty series, got %v", err)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	bars := Synthetic(SyntheticConfig{Bars: 20, Seed: 7})
	path := filepath.Join(t.TempDir(), "bars.csv")

	if err := WriteCSV(path, bars); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(got) != len(bars) {
		t.Fatalf("expected %d bars, got %d", len(bars), len(got))
	}
	for i := range bars {
		if !got[i].Time.Equal(bars[i].Time) {
			t.Errorf("bar %d time = %v, want %v", i, got[i].Time, bars[i].Time)
		}
		if got[i].Open != bars[i].Open || got[i].High != bars[i].High ||
			got[i].Low != bars[i].Low || got[i].Close != bars[i].Close ||
			got[i].Volume != bars[i].Volume {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], bars[i])
		}
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
