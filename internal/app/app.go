// Package app wires the engine components together behind the command
// layer. Every backtest, sweep and scan goes through App, which tracks
// the run in the registry, records metrics and archives the result.
package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/archive"
	"github.com/newthinker/alphalab/internal/backtest"
	"github.com/newthinker/alphalab/internal/config"
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/metrics"
	"github.com/newthinker/alphalab/internal/scanner"
	"github.com/newthinker/alphalab/internal/sensitivity"
	"github.com/newthinker/alphalab/internal/store"
	"github.com/newthinker/alphalab/internal/strategy"
)

// App owns the run registry, the metrics registry and the result
// archive. Methods are safe for concurrent use; each invocation is an
// independent run.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	runs    *store.Store
	archive *archive.Archive // nil when archiving is disabled
	metrics *metrics.Registry
}

// New assembles the application from a configuration, validating it
// first.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "app requires a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	arch, err := newArchive(cfg.Archive, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		runs:    store.New(cfg.Store.MaxRuns, cfg.Store.TTL),
		archive: arch,
		metrics: metrics.NewRegistry(),
	}, nil
}

func newArchive(cfg config.ArchiveConfig, logger *zap.Logger) (*archive.Archive, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "localfs":
		fs, err := archive.NewLocalFS(cfg.Path)
		if err != nil {
			return nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return archive.New(fs, logger), nil
	case "s3":
		s3, err := archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return archive.New(s3, logger), nil
	default:
		return nil, core.WrapErrorf(core.ErrConfigInvalid, "unknown archive type %q", cfg.Type)
	}
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Metrics exposes the Prometheus registry for exposition endpoints.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Runs exposes the run registry.
func (a *App) Runs() *store.Store { return a.runs }

// Archive returns the result archive, nil when archiving is disabled.
func (a *App) Archive() *archive.Archive { return a.archive }

// Archiving reports whether results are persisted.
func (a *App) Archiving() bool { return a.archive != nil }

// BacktestRequest carries everything one simulation needs.
type BacktestRequest struct {
	Bars      []core.Bar
	Params    *strategy.Parameters
	Resolver  *strategy.Resolver
	ExitRules []strategy.ExitRule
}

// RunBacktest simulates one strategy over one bar series.
func (a *App) RunBacktest(ctx context.Context, req BacktestRequest) (string, *backtest.Result, error) {
	run := a.runs.Create("backtest")
	a.metrics.RunStarted("backtest")
	defer a.metrics.RunFinished("backtest")
	a.markRunning(run.ID)

	engine := backtest.New(a.cfg.Backtest, req.Params, req.Resolver, a.logger)
	if len(req.ExitRules) > 0 {
		engine.SetExitRules(req.ExitRules)
	}

	started := time.Now()
	result, err := engine.Run(ctx, req.Bars)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		status := a.failRun(run.ID, err)
		a.metrics.RecordBacktest(string(status), elapsed)
		return run.ID, nil, err
	}

	a.metrics.RecordBacktest(string(store.StatusCompleted), elapsed)
	a.metrics.RecordTrades(len(result.Trades))
	for _, t := range result.Trades {
		a.metrics.RecordSignal(t.Detector, string(t.Side))
	}

	a.completeRun(ctx, run.ID, result)
	return run.ID, result, nil
}

// SweepRequest carries the fixed inputs of a parameter sweep.
type SweepRequest struct {
	Bars      []core.Bar
	Params    *strategy.Parameters
	Resolver  *strategy.Resolver
	ExitRules []strategy.ExitRule
	Workers   int
}

func (a *App) sweepAnalyzer(req SweepRequest) *sensitivity.Analyzer {
	analyzer := sensitivity.New(a.cfg.Backtest, req.Resolver, req.Workers, a.logger)
	if len(req.ExitRules) > 0 {
		analyzer.SetExitRules(req.ExitRules)
	}
	return analyzer
}

// RunSweep sweeps a single parameter over a value grid.
func (a *App) RunSweep(ctx context.Context, req SweepRequest, param string, values []float64) (string, *sensitivity.Report, error) {
	run := a.runs.Create("sweep")
	a.metrics.RunStarted("sweep")
	defer a.metrics.RunFinished("sweep")
	a.markRunning(run.ID)

	report, err := a.sweepAnalyzer(req).SweepOne(ctx, req.Bars, req.Params, param, values)
	if err != nil {
		a.failRun(run.ID, err)
		return run.ID, nil, err
	}

	for range report.Results {
		a.metrics.RecordSweepUnit("ok")
	}
	for range report.Failures {
		a.metrics.RecordSweepUnit("failed")
	}

	a.completeRun(ctx, run.ID, report)
	return run.ID, report, nil
}

// RunSweepGrid sweeps two parameters jointly.
func (a *App) RunSweepGrid(ctx context.Context, req SweepRequest, param1 string, values1 []float64, param2 string, values2 []float64) (string, *sensitivity.GridReport, error) {
	run := a.runs.Create("sweep")
	a.metrics.RunStarted("sweep")
	defer a.metrics.RunFinished("sweep")
	a.markRunning(run.ID)

	report, err := a.sweepAnalyzer(req).SweepTwo(ctx, req.Bars, req.Params, param1, values1, param2, values2)
	if err != nil {
		a.failRun(run.ID, err)
		return run.ID, nil, err
	}

	for range report.Cells {
		a.metrics.RecordSweepUnit("ok")
	}
	for range report.Failures {
		a.metrics.RecordSweepUnit("failed")
	}

	a.completeRun(ctx, run.ID, report)
	return run.ID, report, nil
}

// ScanRequest fans the detector set over many symbols.
type ScanRequest struct {
	Symbols  []string
	Provider scanner.BarProvider
	Params   *strategy.Parameters
	Resolver *strategy.Resolver
	Start    time.Time
	End      time.Time
}

// RunScan runs the detector set over every symbol and ranks the
// outcomes.
func (a *App) RunScan(ctx context.Context, req ScanRequest) (string, *scanner.ScanReport, error) {
	run := a.runs.Create("scan")
	a.metrics.RunStarted("scan")
	defer a.metrics.RunFinished("scan")
	a.markRunning(run.ID)

	sc := scanner.New(a.cfg.Scanner, req.Provider, req.Params, req.Resolver, a.logger)
	report, err := sc.Scan(ctx, req.Symbols, req.Start, req.End)
	if err != nil {
		a.failRun(run.ID, err)
		return run.ID, nil, err
	}

	for _, r := range report.Reports {
		a.metrics.RecordScanUnit("ok")
		a.metrics.ObserveFetch(r.FetchSeconds)
	}
	for range report.Failures {
		a.metrics.RecordScanUnit("failed")
	}

	a.completeRun(ctx, run.ID, report)
	return run.ID, report, nil
}

func (a *App) markRunning(id string) {
	_ = a.runs.Update(id, func(r *store.Run) { r.Status = store.StatusRunning })
}

// failRun marks a run failed, or cancelled when the error came from
// the context, and returns the final status.
func (a *App) failRun(id string, err error) store.Status {
	status := store.StatusFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = store.StatusCancelled
	}

	var ce *core.Error
	errors.As(err, &ce)
	_ = a.runs.Update(id, func(r *store.Run) {
		r.Status = status
		r.Error = ce
	})
	return status
}

// completeRun stores the result and archives it when enabled. Archive
// failures are logged, not returned.
func (a *App) completeRun(ctx context.Context, id string, result any) {
	_ = a.runs.Update(id, func(r *store.Run) {
		r.Status = store.StatusCompleted
		r.Progress = 100
		r.Result = result
	})

	if a.archive == nil {
		return
	}
	if err := a.archive.Save(ctx, id, result); err != nil {
		a.logger.Error("failed to archive result",
			zap.String("run_id", id),
			zap.Error(err),
		)
	}
}
