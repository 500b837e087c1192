// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all engine metrics on a dedicated Prometheus registry.
type Registry struct {
	*prometheus.Registry

	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	tradesSimulated  prometheus.Counter
	signalsDetected  *prometheus.CounterVec
	scanFetchSeconds prometheus.Histogram
	scanUnits        *prometheus.CounterVec
	sweepUnits       *prometheus.CounterVec
	runsActive       *prometheus.GaugeVec
}

// NewRegistry creates a registry with all engine metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphalab_backtests_total",
				Help: "Total number of backtests by final status",
			},
			[]string{"status"},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alphalab_backtest_duration_seconds",
				Help:    "Backtest wall-clock duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.05, 0.25, 1, 5, 30},
			},
		),
		tradesSimulated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "alphalab_trades_simulated_total",
				Help: "Total number of simulated trades",
			},
		),
		signalsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphalab_signals_detected_total",
				Help: "Total number of detector signals",
			},
			[]string{"detector", "action"},
		),
		scanFetchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alphalab_scan_fetch_duration_seconds",
				Help:    "Per-symbol bar fetch duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2.5, 10},
			},
		),
		scanUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphalab_scan_units_total",
				Help: "Total number of scanned symbols by outcome",
			},
			[]string{"outcome"},
		),
		sweepUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphalab_sweep_units_total",
				Help: "Total number of sweep grid points by outcome",
			},
			[]string{"outcome"},
		),
		runsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphalab_runs_active",
				Help: "Number of currently running engine invocations",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.tradesSimulated)
	reg.MustRegister(r.signalsDetected)
	reg.MustRegister(r.scanFetchSeconds)
	reg.MustRegister(r.scanUnits)
	reg.MustRegister(r.sweepUnits)
	reg.MustRegister(r.runsActive)

	return r
}

// RecordBacktest records a finished backtest.
func (r *Registry) RecordBacktest(status string, seconds float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(seconds)
}

// RecordTrades adds to the simulated trade count.
func (r *Registry) RecordTrades(n int) {
	r.tradesSimulated.Add(float64(n))
}

// RecordSignal records one detector signal.
func (r *Registry) RecordSignal(detector, action string) {
	r.signalsDetected.WithLabelValues(detector, action).Inc()
}

// ObserveFetch records one bar-fetch duration.
func (r *Registry) ObserveFetch(seconds float64) {
	r.scanFetchSeconds.Observe(seconds)
}

// RecordScanUnit records one scanned symbol by outcome ("ok"/"failed").
func (r *Registry) RecordScanUnit(outcome string) {
	r.scanUnits.WithLabelValues(outcome).Inc()
}

// RecordSweepUnit records one sweep grid point by outcome ("ok"/"failed").
func (r *Registry) RecordSweepUnit(outcome string) {
	r.sweepUnits.WithLabelValues(outcome).Inc()
}

// RunStarted marks a run of the given kind as active.
func (r *Registry) RunStarted(kind string) {
	r.runsActive.WithLabelValues(kind).Inc()
}

// RunFinished marks a run of the given kind as done.
func (r *Registry) RunFinished(kind string) {
	r.runsActive.WithLabelValues(kind).Dec()
}

// Handler returns an HTTP handler exposing the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
