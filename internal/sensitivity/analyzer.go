package sensitivity

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/backtest"
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
	"github.com/newthinker/alphalab/internal/strategy"
)

// DefaultWorkers bounds concurrent simulations when the caller does
// not choose a pool size.
const DefaultWorkers = 4

// Analyzer re-runs the simulation across parameter grids. Every grid
// point is an independent engine run over the same bars; results are
// keyed by grid position so completion order never matters.
type Analyzer struct {
	cfg      backtest.Config
	resolver *strategy.Resolver
	exits    []strategy.ExitRule
	workers  int
	logger   *zap.Logger
}

// New creates an analyzer running at most workers simulations at once.
func New(cfg backtest.Config, resolver *strategy.Resolver, workers int, logger ...*zap.Logger) *Analyzer {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Analyzer{
		cfg:      cfg,
		resolver: resolver,
		workers:  workers,
		logger:   l,
	}
}

// SetExitRules installs exit rules applied to every simulation of the
// sweep.
func (a *Analyzer) SetExitRules(rules []strategy.ExitRule) {
	a.exits = rules
}

// Point is the outcome of one simulated grid value.
type Point struct {
	Value       float64 `json:"value"`
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Trades      int     `json:"trades"`
	Optimal     bool    `json:"optimal,omitempty"`
}

// Failure records a grid value whose simulation failed. Failures are
// excluded from the results and never abort the sweep.
type Failure struct {
	Value float64 `json:"value"`
	Error string  `json:"error"`
}

// Report is the outcome of a single-parameter sweep.
type Report struct {
	ParamName      string    `json:"param_name"`
	Results        []Point   `json:"results"`
	OptimalValue   float64   `json:"optimal_value"`
	StabilityScore float64   `json:"stability_score"`
	Failures       []Failure `json:"failures,omitempty"`
}

// Cell is one heat-map entry of a dual-parameter sweep.
type Cell struct {
	Value1      float64 `json:"value1"`
	Value2      float64 `json:"value2"`
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	WinRate     float64 `json:"win_rate"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Trades      int     `json:"trades"`
	Optimal     bool    `json:"optimal,omitempty"`
}

// Combination names the best cell of a grid.
type Combination struct {
	Value1 float64 `json:"value1"`
	Value2 float64 `json:"value2"`
}

// CellFailure records a failed grid cell.
type CellFailure struct {
	Value1 float64 `json:"value1"`
	Value2 float64 `json:"value2"`
	Error  string  `json:"error"`
}

// GridReport is the outcome of a dual-parameter sweep.
type GridReport struct {
	Param1   string        `json:"param1"`
	Param2   string        `json:"param2"`
	Cells    []Cell        `json:"cells"`
	Optimal  Combination   `json:"optimal_combination"`
	Failures []CellFailure `json:"failures,omitempty"`
}

func (a *Analyzer) simulate(ctx context.Context, bars []core.Bar, params *strategy.Parameters) (*backtest.Result, error) {
	eng := backtest.New(a.cfg, params, a.resolver)
	eng.SetExitRules(a.exits)
	return eng.Run(ctx, bars)
}

// SweepOne re-runs the simulation once per grid value of a single
// parameter. Results keep grid order; the max-total-return point is
// marked optimal.
func (a *Analyzer) SweepOne(ctx context.Context, bars []core.Bar, base *strategy.Parameters, paramName string, values []float64) (*Report, error) {
	if len(values) == 0 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "sweep of %q has no grid values", paramName)
	}
	if _, ok := base.Get(paramName); !ok {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "unknown sweep parameter %q", paramName)
	}

	a.logger.Info("starting parameter sweep",
		zap.String("param", paramName),
		zap.Int("grid", len(values)),
		zap.Int("workers", a.workers),
	)

	type slot struct {
		point Point
		err   error
	}
	slots := make([]slot, len(values))

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, v := range values {
		wg.Add(1)
		go func(i int, v float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				slots[i].err = err
				return
			}
			params, err := base.WithValue(paramName, v)
			if err != nil {
				slots[i].err = err
				return
			}
			res, err := a.simulate(ctx, bars, params)
			if err != nil {
				slots[i].err = err
				return
			}
			slots[i].point = Point{
				Value:       v,
				TotalReturn: res.Returns.TotalReturn,
				SharpeRatio: res.Risk.SharpeRatio,
				WinRate:     res.Trading.WinRate,
				MaxDrawdown: res.Risk.MaxDrawdown,
				Trades:      res.Trading.TotalTrades,
			}
		}(i, v)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{ParamName: paramName}
	for i, s := range slots {
		if s.err != nil {
			report.Failures = append(report.Failures, Failure{Value: values[i], Error: s.err.Error()})
			a.logger.Warn("grid point failed",
				zap.Float64("value", values[i]),
				zap.Error(core.WrapError(core.ErrBatchUnitFailure, s.err)),
			)
			continue
		}
		report.Results = append(report.Results, s.point)
	}
	if len(report.Results) == 0 {
		return nil, core.WrapErrorf(core.ErrBatchUnitFailure, "all %d grid points of %q failed", len(values), paramName)
	}

	best := 0
	for i, p := range report.Results {
		if p.TotalReturn > report.Results[best].TotalReturn {
			best = i
		}
	}
	report.Results[best].Optimal = true
	report.OptimalValue = report.Results[best].Value
	report.StabilityScore = stability(report.Results, best)

	a.logger.Info("parameter sweep finished",
		zap.String("param", paramName),
		zap.Float64("optimal", report.OptimalValue),
		zap.Float64("stability", report.StabilityScore),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// SweepTwo runs the full cartesian grid of two parameters and marks
// the best cell.
func (a *Analyzer) SweepTwo(ctx context.Context, bars []core.Bar, base *strategy.Parameters, param1 string, values1 []float64, param2 string, values2 []float64) (*GridReport, error) {
	if len(values1) == 0 || len(values2) == 0 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "grid over %q and %q has an empty axis", param1, param2)
	}
	if param1 == param2 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "grid axes name the same parameter %q", param1)
	}
	if _, ok := base.Get(param1); !ok {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "unknown sweep parameter %q", param1)
	}
	if _, ok := base.Get(param2); !ok {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "unknown sweep parameter %q", param2)
	}

	a.logger.Info("starting grid sweep",
		zap.String("param1", param1),
		zap.String("param2", param2),
		zap.Int("cells", len(values1)*len(values2)),
		zap.Int("workers", a.workers),
	)

	type slot struct {
		cell Cell
		err  error
	}
	slots := make([]slot, len(values1)*len(values2))

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, v1 := range values1 {
		for j, v2 := range values2 {
			wg.Add(1)
			go func(idx int, v1, v2 float64) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				if err := ctx.Err(); err != nil {
					slots[idx].err = err
					return
				}
				params, err := base.WithValue(param1, v1)
				if err == nil {
					params, err = params.WithValue(param2, v2)
				}
				if err != nil {
					slots[idx].err = err
					return
				}
				res, err := a.simulate(ctx, bars, params)
				if err != nil {
					slots[idx].err = err
					return
				}
				slots[idx].cell = Cell{
					Value1:      v1,
					Value2:      v2,
					TotalReturn: res.Returns.TotalReturn,
					SharpeRatio: res.Risk.SharpeRatio,
					WinRate:     res.Trading.WinRate,
					MaxDrawdown: res.Risk.MaxDrawdown,
					Trades:      res.Trading.TotalTrades,
				}
			}(i*len(values2)+j, v1, v2)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &GridReport{Param1: param1, Param2: param2}
	for idx, s := range slots {
		if s.err != nil {
			report.Failures = append(report.Failures, CellFailure{
				Value1: values1[idx/len(values2)],
				Value2: values2[idx%len(values2)],
				Error:  s.err.Error(),
			})
			continue
		}
		report.Cells = append(report.Cells, s.cell)
	}
	if len(report.Cells) == 0 {
		return nil, core.WrapErrorf(core.ErrBatchUnitFailure, "all %d grid cells failed", len(slots))
	}

	best := 0
	for i, c := range report.Cells {
		if c.TotalReturn > report.Cells[best].TotalReturn {
			best = i
		}
	}
	report.Cells[best].Optimal = true
	report.Optimal = Combination{Value1: report.Cells[best].Value1, Value2: report.Cells[best].Value2}

	a.logger.Info("grid sweep finished",
		zap.Float64("optimal_value1", report.Optimal.Value1),
		zap.Float64("optimal_value2", report.Optimal.Value2),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// stability grades how flat the return surface is around the optimum:
// 1 means every grid value performed the same, 0 means performance
// collapses away from it.
func stability(points []Point, best int) float64 {
	if len(points) < 2 {
		return 1
	}
	opt := points[best].TotalReturn
	var dev float64
	for _, p := range points {
		dev += math.Abs(p.TotalReturn - opt)
	}
	dev /= float64(len(points))

	scale := math.Abs(opt)
	if scale < 1e-9 {
		if dev < 1e-9 {
			return 1
		}
		return 0
	}
	s := 1 - dev/scale
	if s < 0 {
		return 0
	}
	return money.FromFloat(s).Percent().Float64()
}
