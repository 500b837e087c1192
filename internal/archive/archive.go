package archive

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
)

// resultPrefix is the key namespace for archived run artifacts.
const resultPrefix = "results"

// Archive stores one JSON document per run ID under results/<id>.json.
// The document type is up to the caller; backtest results and sweep
// reports share the namespace because run IDs are unique across kinds.
type Archive struct {
	storage Storage
	logger  *zap.Logger
}

// New creates an archive over the given storage backend.
func New(storage Storage, logger ...*zap.Logger) *Archive {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Archive{storage: storage, logger: l}
}

// Save marshals v and writes it under the given run ID.
func (a *Archive) Save(ctx context.Context, id string, v any) error {
	if err := validateID(id); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := a.storage.Write(ctx, resultPath(id), data); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}

	a.logger.Info("archived result",
		zap.String("id", id),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load reads the document stored under id into out.
func (a *Archive) Load(ctx context.Context, id string, out any) error {
	if err := validateID(id); err != nil {
		return err
	}

	ok, err := a.storage.Exists(ctx, resultPath(id))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if !ok {
		return core.WrapErrorf(core.ErrRunNotFound, "no archived result %q", id)
	}

	data, err := a.storage.Read(ctx, resultPath(id))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// List returns the IDs of all archived documents, sorted by the backend.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	paths, err := a.storage.List(ctx, resultPrefix)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}

	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		name := path.Base(p)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Delete removes the document stored under id.
func (a *Archive) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	ok, err := a.storage.Exists(ctx, resultPath(id))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if !ok {
		return core.WrapErrorf(core.ErrRunNotFound, "no archived result %q", id)
	}

	if err := a.storage.Delete(ctx, resultPath(id)); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	a.logger.Info("deleted archived result", zap.String("id", id))
	return nil
}

func resultPath(id string) string {
	return resultPrefix + "/" + id + ".json"
}

// validateID rejects IDs that could escape the result namespace.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return core.WrapErrorf(core.ErrInvalidInput, "invalid archive id %q", id)
	}
	return nil
}
