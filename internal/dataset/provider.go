package dataset

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

// DirProvider serves bars from a directory of per-symbol CSV files
// (<dir>/<symbol>.csv). Files hold daily bars; other timeframes are
// rejected rather than resampled.
type DirProvider struct {
	dir string
}

// NewDirProvider creates a provider over the given directory.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

// Bars loads the symbol's file and returns bars within [start, end].
// Zero bounds are open-ended.
func (p *DirProvider) Bars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]core.Bar, error) {
	if timeframe != "" && timeframe != "1d" {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "dir provider serves daily bars, not %q", timeframe)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, symbol+".csv")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, core.WrapErrorf(core.ErrInvalidInput, "no dataset for symbol %q", symbol)
	}

	bars, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}

	filtered := bars[:0:0]
	for _, b := range bars {
		if !start.IsZero() && b.Time.Before(start) {
			continue
		}
		if !end.IsZero() && b.Time.After(end) {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered, nil
}
