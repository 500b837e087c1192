// Package archive persists run artifacts, backtest results and sweep
// reports, as JSON documents on a pluggable storage backend.
package archive

import "context"

// Storage is a flat blob store keyed by slash-separated paths.
type Storage interface {
	// Write stores data at the given path, overwriting any previous value.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves the data stored at the given path.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}
