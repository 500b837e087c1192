package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	// Runtime collectors come registered out of the box.
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func gatherNames(t *testing.T, reg *Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestRegistry_RecordBacktest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("completed", 0.02)
	reg.RecordTrades(4)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"alphalab_backtests_total",
		"alphalab_backtest_duration_seconds",
		"alphalab_trades_simulated_total",
	} {
		if !names[want] {
			t.Errorf("expected metric %s", want)
		}
	}
}

func TestRegistry_RecordSignalLabels(t *testing.T) {
	reg := NewRegistry()

	reg.RecordSignal("ma_crossover", "buy")
	reg.RecordSignal("ma_crossover", "sell")
	reg.RecordSignal("rsi_reversal", "buy")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "alphalab_signals_detected_total" {
			continue
		}
		if got := len(mf.GetMetric()); got != 3 {
			t.Errorf("expected 3 label combinations, got %d", got)
		}
		return
	}
	t.Error("expected alphalab_signals_detected_total metric")
}

func TestRegistry_BatchUnitCounters(t *testing.T) {
	reg := NewRegistry()

	reg.RecordScanUnit("ok")
	reg.RecordScanUnit("failed")
	reg.RecordSweepUnit("ok")
	reg.ObserveFetch(0.003)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"alphalab_scan_units_total",
		"alphalab_sweep_units_total",
		"alphalab_scan_fetch_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("expected metric %s", want)
		}
	}
}

func TestRegistry_RunsActiveGauge(t *testing.T) {
	reg := NewRegistry()

	reg.RunStarted("backtest")
	reg.RunStarted("backtest")
	reg.RunFinished("backtest")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "alphalab_runs_active" {
			continue
		}
		if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 1 {
			t.Errorf("expected gauge 1, got %v", got)
		}
		return
	}
	t.Error("expected alphalab_runs_active metric")
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.RecordBacktest("completed", 0.01)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "alphalab_backtests_total") {
		t.Error("exposition missing alphalab_backtests_total")
	}
}
