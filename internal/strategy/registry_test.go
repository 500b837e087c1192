package strategy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/newthinker/alphalab/internal/core"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(silentStub("rsi_reversal"))
	r.Register(silentStub("ma_crossover"))

	d, ok := r.Get("ma_crossover")
	if !ok {
		t.Fatal("expected detector to be registered")
	}
	if d.Name() != "ma_crossover" {
		t.Errorf("expected ma_crossover, got %s", d.Name())
	}

	if _, ok := r.Get("nope"); ok {
		t.Error("expected lookup miss for unregistered name")
	}

	if got := r.Names(); !reflect.DeepEqual(got, []string{"ma_crossover", "rsi_reversal"}) {
		t.Errorf("expected sorted names, got %v", got)
	}
	if got := len(r.All()); got != 2 {
		t.Errorf("expected 2 detectors, got %d", got)
	}
}

func TestRegistry_Activations(t *testing.T) {
	r := NewRegistry()
	r.Register(silentStub("ma_crossover"))
	r.Register(silentStub("rsi_reversal"))

	acts, err := r.Activations("rsi_reversal", "ma_crossover")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("expected 2 activations, got %d", len(acts))
	}
	if acts[0].Detector.Name() != "rsi_reversal" || acts[0].Priority != 0 {
		t.Errorf("expected rsi_reversal at priority 0, got %s/%d", acts[0].Detector.Name(), acts[0].Priority)
	}
	if acts[1].Detector.Name() != "ma_crossover" || acts[1].Priority != 1 {
		t.Errorf("expected ma_crossover at priority 1, got %s/%d", acts[1].Detector.Name(), acts[1].Priority)
	}
}

func TestRegistry_ActivationsUnknownDetector(t *testing.T) {
	r := NewRegistry()
	r.Register(silentStub("ma_crossover"))

	_, err := r.Activations("ma_crossover", "momentum_wave")
	if !errors.Is(err, core.ErrDetectorUnknown) {
		t.Errorf("expected ErrDetectorUnknown, got %v", err)
	}
}
