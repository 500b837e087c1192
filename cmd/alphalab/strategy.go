package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/dataset"
	"github.com/newthinker/alphalab/internal/strategy"
	"github.com/newthinker/alphalab/internal/strategy/bollinger_touch"
	"github.com/newthinker/alphalab/internal/strategy/ma_crossover"
	"github.com/newthinker/alphalab/internal/strategy/macd_histogram"
	"github.com/newthinker/alphalab/internal/strategy/rsi_reversal"
	"github.com/newthinker/alphalab/internal/strategy/volume_breakout"
)

// builtinRegistry catalogues the stock detectors.
func builtinRegistry() *strategy.Registry {
	reg := strategy.NewRegistry()
	reg.Register(ma_crossover.New())
	reg.Register(rsi_reversal.New())
	reg.Register(macd_histogram.New())
	reg.Register(bollinger_touch.New())
	reg.Register(volume_breakout.New())
	return reg
}

// defaultParams merges the default parameters of every stock detector.
func defaultParams() *strategy.Parameters {
	return strategy.NewParameters().Merge(
		ma_crossover.DefaultParams(),
		rsi_reversal.DefaultParams(),
		macd_histogram.DefaultParams(),
		bollinger_touch.DefaultParams(),
		volume_breakout.DefaultParams(),
	)
}

// buildStrategy assembles the parameter set and signal resolver from
// subcommand flags: detector names in priority order, name=value
// parameter overrides and a resolution policy.
func buildStrategy(log *zap.Logger, detectors, overrides []string, policyName string) (*strategy.Parameters, *strategy.Resolver, error) {
	reg := builtinRegistry()
	if len(detectors) == 0 {
		detectors = reg.Names()
	}
	activations, err := reg.Activations(detectors...)
	if err != nil {
		return nil, nil, err
	}

	policy, err := strategy.ParsePolicy(policyName)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := strategy.NewResolver(activations, policy, log)
	if err != nil {
		return nil, nil, err
	}

	params := defaultParams()
	for _, kv := range overrides {
		name, value, err := parseOverride(kv)
		if err != nil {
			return nil, nil, err
		}
		if err := params.SetValue(name, value); err != nil {
			return nil, nil, err
		}
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	return params, resolver, nil
}

func parseOverride(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("parameter override %q is not name=value", kv)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter override %q: %v", kv, err)
	}
	return name, value, nil
}

// exitRulesFromFlags builds rules only for thresholds actually set, so
// an unset stop never fires at zero.
func exitRulesFromFlags(takeProfit, stopLoss float64, maxHolding int) []strategy.ExitRule {
	var rules []strategy.ExitRule
	if stopLoss > 0 {
		rules = append(rules, strategy.ExitRule{
			Name:   "stop_loss",
			Expr:   fmt.Sprintf("%s <= %g", strategy.MetricUnrealizedPnLPct, -stopLoss),
			Reason: fmt.Sprintf("stop loss at -%g%%", stopLoss),
		})
	}
	if takeProfit > 0 {
		rules = append(rules, strategy.ExitRule{
			Name:   "take_profit",
			Expr:   fmt.Sprintf("%s >= %g", strategy.MetricUnrealizedPnLPct, takeProfit),
			Reason: fmt.Sprintf("take profit at +%g%%", takeProfit),
		})
	}
	if maxHolding > 0 {
		rules = append(rules, strategy.ExitRule{
			Name:   "max_holding_days",
			Expr:   fmt.Sprintf("%s >= %d", strategy.MetricHoldingDays, maxHolding),
			Reason: fmt.Sprintf("maximum holding period of %d bars reached", maxHolding),
		})
	}
	return rules
}

// parseWindow parses the --from/--to pair. A bare --to date extends
// through the end of that day, so daily bars on the boundary stay in.
func parseWindow(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		start, err = dataset.ParseTime(from)
		if err != nil {
			return start, end, fmt.Errorf("invalid from date: %v", err)
		}
	}
	if to != "" {
		end, err = dataset.ParseTime(to)
		if err != nil {
			return start, end, fmt.Errorf("invalid to date: %v", err)
		}
		if len(to) == len("2006-01-02") {
			end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("to date %s precedes from date %s", to, from)
	}
	return start, end, nil
}

// clipWindow narrows a bar series to [from, to]; empty bounds stay
// open.
func clipWindow(bars []core.Bar, from, to string) ([]core.Bar, error) {
	start, end, err := parseWindow(from, to)
	if err != nil {
		return nil, err
	}
	if start.IsZero() && end.IsZero() {
		return bars, nil
	}

	clipped := make([]core.Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		clipped = append(clipped, b)
	}
	return clipped, nil
}
