package scanner

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

// Policy controls how transient provider failures are retried:
// exponential backoff starting at InitialDelay, multiplied by Factor
// per attempt and capped at MaxDelay, with a random jitter fraction.
// AttemptTimeout bounds each individual call.
type Policy struct {
	MaxAttempts    int           `mapstructure:"max_attempts" json:"max_attempts"`
	InitialDelay   time.Duration `mapstructure:"initial_delay" json:"initial_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay" json:"max_delay"`
	Factor         float64       `mapstructure:"factor" json:"factor"`
	Jitter         float64       `mapstructure:"jitter" json:"jitter"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" json:"attempt_timeout"`
}

// DefaultPolicy returns the retry defaults: three attempts, 100ms
// initial delay doubling up to 5s, 20% jitter, 10s per attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Factor:         2.0,
		Jitter:         0.2,
		AttemptTimeout: 10 * time.Second,
	}
}

// Validate checks the policy before a scan.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "retry max_attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 || p.AttemptTimeout < 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "retry delays cannot be negative")
	}
	if p.Factor < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "retry factor must be at least 1, got %f", p.Factor)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "retry jitter must be in [0, 1), got %f", p.Jitter)
	}
	return nil
}

// permanent reports whether retrying cannot help: bad input stays bad.
func permanent(err error) bool {
	return errors.Is(err, core.ErrInvalidInput)
}

// fetch runs fn under the policy. Permanent errors and context
// cancellation stop immediately; transient errors back off and retry
// until the attempts are spent, then surface as ErrFetchFailed with
// the last cause attached.
func (p Policy) fetch(ctx context.Context, fn func(ctx context.Context) ([]core.Bar, error)) ([]core.Bar, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		bars, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return bars, nil
		}
		lastErr = err
		if permanent(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		sleep := delay
		if p.Jitter > 0 {
			sleep = time.Duration(float64(sleep) * (1 + p.Jitter*(2*rand.Float64()-1)))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
		delay = time.Duration(float64(delay) * p.Factor)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return nil, core.WrapError(core.ErrFetchFailed, lastErr)
}
