package strategy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/alphalab/internal/core"
)

// Metric names an exit rule expression may reference. Percentage
// metrics are expressed in percent units: 10 means +10%.
const (
	MetricUnrealizedPnLPct = "unrealized_pnl_pct"
	MetricHoldingDays      = "holding_days"
	MetricDrawdownPct      = "drawdown_pct"
	MetricClose            = "close"
	MetricEntryPrice       = "entry_price"
)

// ExitRule closes an open position when its expression holds. Expr is a
// single comparison "metric op threshold" with op one of
// >, <, >=, <=, ==, !=.
type ExitRule struct {
	Name   string `mapstructure:"name" json:"name"`
	Expr   string `mapstructure:"expr" json:"expr"`
	Reason string `mapstructure:"reason" json:"reason"`
}

var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?\d+(?:\.\d+)?)$`)

// Validate rejects rules whose expression cannot possibly fire.
func (r ExitRule) Validate() error {
	if r.Name == "" {
		return core.WrapErrorf(core.ErrInvalidInput, "exit rule has no name")
	}
	if !exprPattern.MatchString(strings.TrimSpace(r.Expr)) {
		return core.WrapErrorf(core.ErrInvalidInput, "exit rule %q has malformed expression %q", r.Name, r.Expr)
	}
	return nil
}

// Evaluate reports whether the rule fires against the given position
// metrics. Malformed expressions and unknown metrics never fire.
func (r ExitRule) Evaluate(metrics map[string]float64) bool {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return false
	}

	value, exists := metrics[matches[1]]
	if !exists || math.IsNaN(value) {
		return false
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return false
	}

	switch matches[2] {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

// EvaluateExitRules returns the first rule that fires, in rule order.
func EvaluateExitRules(rules []ExitRule, metrics map[string]float64) (ExitRule, bool) {
	for _, r := range rules {
		if r.Evaluate(metrics) {
			return r, true
		}
	}
	return ExitRule{}, false
}

// DefaultExitRules returns the stock take-profit, stop-loss and holding
// window rules. Percentages are magnitudes: DefaultExitRules(10, 5, 30)
// takes profit at +10%, stops loss at -5% and exits after 30 bars.
func DefaultExitRules(takeProfitPct, stopLossPct float64, maxHoldingDays int) []ExitRule {
	return []ExitRule{
		{
			Name:   "stop_loss",
			Expr:   fmt.Sprintf("%s <= %g", MetricUnrealizedPnLPct, -math.Abs(stopLossPct)),
			Reason: fmt.Sprintf("stop loss at -%g%%", math.Abs(stopLossPct)),
		},
		{
			Name:   "take_profit",
			Expr:   fmt.Sprintf("%s >= %g", MetricUnrealizedPnLPct, takeProfitPct),
			Reason: fmt.Sprintf("take profit at +%g%%", takeProfitPct),
		},
		{
			Name:   "max_holding_days",
			Expr:   fmt.Sprintf("%s >= %d", MetricHoldingDays, maxHoldingDays),
			Reason: fmt.Sprintf("maximum holding period of %d bars reached", maxHoldingDays),
		},
	}
}
