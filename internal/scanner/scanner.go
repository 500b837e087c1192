package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
	"github.com/newthinker/alphalab/internal/strategy"
)

// Config holds the scan settings.
type Config struct {
	// Workers bounds concurrent symbol units.
	Workers int `mapstructure:"workers" json:"workers"`
	// Lookback is how many trailing bars are scanned for signals.
	Lookback int `mapstructure:"lookback" json:"lookback"`
	// WinHorizon is how many bars after a signal its direction is
	// graded against the close.
	WinHorizon int `mapstructure:"win_horizon" json:"win_horizon"`
	// DedupGap collapses signal clusters closer than this many bars,
	// keeping the strongest. Zero disables the pass.
	DedupGap  int    `mapstructure:"dedup_gap" json:"dedup_gap"`
	Timeframe string `mapstructure:"timeframe" json:"timeframe"`
	Retry     Policy `mapstructure:"retry" json:"retry"`
}

// DefaultConfig returns the scan defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    8,
		Lookback:   30,
		WinHorizon: 5,
		DedupGap:   0,
		Timeframe:  "1d",
		Retry:      DefaultPolicy(),
	}
}

// Validate checks the configuration before a scan.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "scanner workers must be at least 1, got %d", c.Workers)
	}
	if c.Lookback < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "scanner lookback must be at least 1, got %d", c.Lookback)
	}
	if c.WinHorizon < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "scanner win_horizon must be at least 1, got %d", c.WinHorizon)
	}
	if c.DedupGap < 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "scanner dedup_gap cannot be negative, got %d", c.DedupGap)
	}
	if c.Timeframe == "" {
		return core.WrapErrorf(core.ErrConfigInvalid, "scanner timeframe is empty")
	}
	return c.Retry.Validate()
}

// SymbolReport aggregates the detection outcome for one symbol.
type SymbolReport struct {
	Symbol      string                  `json:"symbol"`
	Bars        int                     `json:"bars"`
	BuySignals  int                     `json:"buy_signals"`
	SellSignals int                     `json:"sell_signals"`
	LastSignal  *strategy.IndexedSignal `json:"last_signal,omitempty"`

	// FetchSeconds is how long the bar fetch took, retries included.
	FetchSeconds float64 `json:"fetch_seconds"`

	// WinRate is the fraction of graded signals whose direction was
	// profitable WinHorizon bars later; Evaluated counts how many were
	// old enough to grade.
	WinRate   float64 `json:"win_rate"`
	Evaluated int     `json:"evaluated"`

	// Score ranks symbols: the sum of strength weighted by recency.
	Score float64 `json:"score"`
}

// UnitFailure records one symbol that could not be scanned.
type UnitFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// ScanReport is the outcome of one batch scan. Reports are ranked by
// score, best first.
type ScanReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Timeframe  string         `json:"timeframe"`
	Symbols    int            `json:"symbols"`
	Reports    []SymbolReport `json:"reports"`
	Failures   []UnitFailure  `json:"failures,omitempty"`
}

// Scanner fans detection out over many symbols. It never simulates
// trades; it only runs the detector set over recent bars and
// aggregates what fired.
type Scanner struct {
	cfg      Config
	provider BarProvider
	params   *strategy.Parameters
	resolver *strategy.Resolver
	logger   *zap.Logger
}

// New creates a scanner reading bars from the given provider.
func New(cfg Config, provider BarProvider, params *strategy.Parameters, resolver *strategy.Resolver, logger ...*zap.Logger) *Scanner {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Scanner{
		cfg:      cfg,
		provider: provider,
		params:   params,
		resolver: resolver,
		logger:   l,
	}
}

// Scan runs every symbol through the detector set. A failed symbol is
// recorded and skipped; only validation failures and cancellation
// abort the batch.
func (s *Scanner) Scan(ctx context.Context, symbols []string, start, end time.Time) (*ScanReport, error) {
	startedAt := time.Now()
	if len(symbols) == 0 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "scan has no symbols")
	}
	if s.provider == nil {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "scanner has no bar provider")
	}
	if s.resolver == nil {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "scanner has no resolver")
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("starting scan",
		zap.Int("symbols", len(symbols)),
		zap.Int("workers", s.cfg.Workers),
		zap.String("timeframe", s.cfg.Timeframe),
	)

	type slot struct {
		report SymbolReport
		err    error
	}
	slots := make([]slot, len(symbols))

	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				slots[i].err = err
				return
			}
			report, err := s.scanSymbol(ctx, symbol, start, end)
			if err != nil {
				slots[i].err = err
				return
			}
			slots[i].report = report
		}(i, symbol)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &ScanReport{
		StartedAt: startedAt,
		Timeframe: s.cfg.Timeframe,
		Symbols:   len(symbols),
	}
	for i, sl := range slots {
		if sl.err != nil {
			report.Failures = append(report.Failures, UnitFailure{Symbol: symbols[i], Error: sl.err.Error()})
			s.logger.Warn("symbol scan failed",
				zap.String("symbol", symbols[i]),
				zap.Error(core.WrapError(core.ErrBatchUnitFailure, sl.err)),
			)
			continue
		}
		report.Reports = append(report.Reports, sl.report)
	}

	sort.SliceStable(report.Reports, func(a, b int) bool {
		if report.Reports[a].Score != report.Reports[b].Score {
			return report.Reports[a].Score > report.Reports[b].Score
		}
		return report.Reports[a].Symbol < report.Reports[b].Symbol
	})
	report.FinishedAt = time.Now()

	s.logger.Info("scan finished",
		zap.Int("scanned", len(report.Reports)),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string, start, end time.Time) (SymbolReport, error) {
	fetchStart := time.Now()
	bars, err := s.cfg.Retry.fetch(ctx, func(ctx context.Context) ([]core.Bar, error) {
		return s.provider.Bars(ctx, symbol, start, end, s.cfg.Timeframe)
	})
	if err != nil {
		return SymbolReport{}, err
	}
	fetchSeconds := time.Since(fetchStart).Seconds()
	if err := core.ValidateBars(bars); err != nil {
		return SymbolReport{}, err
	}

	indicators, err := strategy.BuildIndicatorSet(bars, s.params)
	if err != nil {
		return SymbolReport{}, err
	}

	from := len(bars) - s.cfg.Lookback
	if from < 0 {
		from = 0
	}

	var signals []strategy.IndexedSignal
	for i := from; i < len(bars); i++ {
		dctx := strategy.DetectContext{
			Params:     s.params,
			Bars:       bars,
			Indicators: indicators,
			Index:      i,
		}
		if sig, ok := s.resolver.Resolve(dctx); ok && sig.IsActionable() {
			signals = append(signals, strategy.IndexedSignal{Index: i, Signal: sig})
		}
	}
	if s.cfg.DedupGap > 0 {
		signals = strategy.Dedup(signals, s.cfg.DedupGap)
	}

	report := s.aggregate(symbol, bars, signals)
	report.FetchSeconds = fetchSeconds
	return report, nil
}

// aggregate folds the per-bar signals of one symbol into its report.
func (s *Scanner) aggregate(symbol string, bars []core.Bar, signals []strategy.IndexedSignal) SymbolReport {
	report := SymbolReport{Symbol: symbol, Bars: len(bars)}

	var wins, evaluated int
	for _, is := range signals {
		switch is.Signal.Action {
		case core.ActionBuy:
			report.BuySignals++
		case core.ActionSell:
			report.SellSignals++
		}

		// Recency weight: the last bar counts fully, older bars less
		report.Score += is.Signal.Strength * float64(is.Index+1) / float64(len(bars))

		grade := is.Index + s.cfg.WinHorizon
		if grade < len(bars) {
			evaluated++
			entry, later := bars[is.Index].Close, bars[grade].Close
			if (is.Signal.Action == core.ActionBuy && later > entry) ||
				(is.Signal.Action == core.ActionSell && later < entry) {
				wins++
			}
		}
	}

	if len(signals) > 0 {
		last := signals[len(signals)-1]
		report.LastSignal = &last
	}
	report.Evaluated = evaluated
	if evaluated > 0 {
		report.WinRate = money.FromFloat(float64(wins) / float64(evaluated)).Percent().Float64()
	}
	return report
}
