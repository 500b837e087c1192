package scanner

import (
	"context"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

// BarProvider supplies historical bars for one symbol. The scanner
// calls it from multiple workers, so implementations must be safe for
// concurrent use. Returned series are validated before any indicator
// is computed.
type BarProvider interface {
	Bars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]core.Bar, error)
}
