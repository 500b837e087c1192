package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestAction_Constants(t *testing.T) {
	actions := []Action{ActionBuy, ActionSell, ActionHold}
	expected := []string{"buy", "sell", "hold"}

	for i, a := range actions {
		if string(a) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], a)
		}
	}
}

func TestSignal_IsActionable(t *testing.T) {
	if !(Signal{Action: ActionBuy}).IsActionable() {
		t.Error("buy should be actionable")
	}
	if !(Signal{Action: ActionSell}).IsActionable() {
		t.Error("sell should be actionable")
	}
	if (Signal{Action: ActionHold}).IsActionable() {
		t.Error("hold should not be actionable")
	}
}

func TestBar_IsFinite(t *testing.T) {
	b := Bar{Time: day(0), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100}
	if !b.IsFinite() {
		t.Error("expected finite bar")
	}

	b.High = math.NaN()
	if b.IsFinite() {
		t.Error("NaN high should not be finite")
	}

	b.High = math.Inf(1)
	if b.IsFinite() {
		t.Error("infinite high should not be finite")
	}
}

func TestValidateBars(t *testing.T) {
	good := []Bar{
		{Time: day(0), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: day(1), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 120},
	}

	tests := []struct {
		name    string
		bars    []Bar
		wantErr bool
	}{
		{"valid", good, false},
		{"empty", nil, true},
		{"zero time", []Bar{{Open: 1, High: 1, Low: 1, Close: 1}}, true},
		{"non-finite", []Bar{{Time: day(0), Open: 1, High: math.NaN(), Low: 1, Close: 1}}, true},
		{"negative volume", []Bar{{Time: day(0), Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}}, true},
		{"duplicate time", []Bar{good[0], good[0]}, true},
		{"descending time", []Bar{good[1], good[0]}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBars(tt.bars)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBars() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestCloses_Volumes(t *testing.T) {
	bars := []Bar{
		{Time: day(0), Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10},
		{Time: day(1), Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}

	closes := Closes(bars)
	if len(closes) != 2 || closes[0] != 1.5 || closes[1] != 2.5 {
		t.Errorf("unexpected closes: %v", closes)
	}

	vols := Volumes(bars)
	if len(vols) != 2 || vols[0] != 10 || vols[1] != 20 {
		t.Errorf("unexpected volumes: %v", vols)
	}
}
