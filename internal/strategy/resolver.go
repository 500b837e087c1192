package strategy

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
)

// Policy names a rule for reducing the signals of multiple detectors
// firing on the same bar to at most one.
type Policy string

const (
	// PolicyLastWins evaluates activations in priority order; the last
	// detector that fires overwrites any earlier result.
	PolicyLastWins Policy = "last-wins"
	// PolicyFirstWins stops at the first detector that fires.
	PolicyFirstWins Policy = "first-wins"
	// PolicyWeightedMerge sums signed strengths (buy positive, sell
	// negative) across all firing detectors and emits the net action.
	PolicyWeightedMerge Policy = "weighted-merge"
)

// ParsePolicy maps a policy name to a Policy. The empty string selects
// the last-wins default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyLastWins, nil
	case PolicyLastWins, PolicyFirstWins, PolicyWeightedMerge:
		return Policy(s), nil
	default:
		return "", core.WrapErrorf(core.ErrInvalidInput, "unknown resolution policy %q", s)
	}
}

// Activation pairs a detector with its evaluation priority. Lower
// priorities evaluate first.
type Activation struct {
	Detector Detector
	Priority int
}

// Resolver evaluates an ordered set of detector activations for one
// bar and reduces their signals through its policy.
type Resolver struct {
	activations []Activation
	policy      Policy
	logger      *zap.Logger
}

// NewResolver creates a resolver over the given activations. The
// activation order is fixed up front: ascending priority, insertion
// order breaking ties.
func NewResolver(activations []Activation, policy Policy, logger ...*zap.Logger) (*Resolver, error) {
	if len(activations) == 0 {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "no detector activations")
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = PolicyLastWins
	}

	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}

	sorted := make([]Activation, len(activations))
	copy(sorted, activations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return &Resolver{activations: sorted, policy: policy, logger: l}, nil
}

// Policy returns the resolution policy in effect.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// Detectors returns the detector names in evaluation order.
func (r *Resolver) Detectors() []string {
	names := make([]string, len(r.activations))
	for i, a := range r.activations {
		names[i] = a.Detector.Name()
	}
	return names
}

// Resolve runs every activation against the context and reduces the
// firing signals to at most one.
func (r *Resolver) Resolve(ctx DetectContext) (core.Signal, bool) {
	switch r.policy {
	case PolicyFirstWins:
		return r.firstWins(ctx)
	case PolicyWeightedMerge:
		return r.weightedMerge(ctx)
	default:
		return r.lastWins(ctx)
	}
}

func (r *Resolver) lastWins(ctx DetectContext) (core.Signal, bool) {
	var out core.Signal
	var fired bool
	for _, a := range r.activations {
		sig, ok := a.Detector.Detect(ctx)
		if !ok {
			continue
		}
		if fired {
			r.logger.Debug("signal overwritten",
				zap.String("previous", out.Detector),
				zap.String("detector", sig.Detector),
				zap.Int("index", ctx.Index),
			)
		}
		out = sig
		fired = true
	}
	return out, fired
}

func (r *Resolver) firstWins(ctx DetectContext) (core.Signal, bool) {
	for _, a := range r.activations {
		if sig, ok := a.Detector.Detect(ctx); ok {
			return sig, true
		}
	}
	return core.Signal{}, false
}

func (r *Resolver) weightedMerge(ctx DetectContext) (core.Signal, bool) {
	var fired []core.Signal
	var score float64
	for _, a := range r.activations {
		sig, ok := a.Detector.Detect(ctx)
		if !ok {
			continue
		}
		fired = append(fired, sig)
		switch sig.Action {
		case core.ActionBuy:
			score += sig.Strength
		case core.ActionSell:
			score -= sig.Strength
		}
	}

	if len(fired) == 0 {
		return core.Signal{}, false
	}
	if len(fired) == 1 {
		return fired[0], true
	}

	action := core.ActionHold
	if score > 0 {
		action = core.ActionBuy
	} else if score < 0 {
		action = core.ActionSell
	}

	detectors := make([]string, len(fired))
	reasons := make([]string, len(fired))
	snapshot := make(map[string]float64)
	for i, sig := range fired {
		detectors[i] = sig.Detector
		reasons[i] = sig.Reason
		for k, v := range sig.Snapshot {
			snapshot[k] = v
		}
	}

	return core.Signal{
		Action:   action,
		Strength: math.Min(math.Abs(score), 1),
		Detector: strings.Join(detectors, "+"),
		Reason:   strings.Join(reasons, "; "),
		Snapshot: snapshot,
		Time:     ctx.Bar().Time,
	}, true
}
