package strategy

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
)

// Registry holds the detector catalogue keyed by name.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
	logger    *zap.Logger
}

// NewRegistry creates an empty detector registry.
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		detectors: make(map[string]Detector),
		logger:    l,
	}
}

// Register adds a detector to the registry, replacing any detector of
// the same name.
func (r *Registry) Register(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[d.Name()] = d
}

// Get retrieves a detector by name.
func (r *Registry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	return d, ok
}

// Names returns the registered detector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered detectors.
func (r *Registry) All() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Detector, 0, len(r.detectors))
	for _, d := range r.detectors {
		result = append(result, d)
	}
	return result
}

// Activations builds an activation list from detector names, assigning
// ascending priorities in the given order. Unknown names fail with
// DETECTOR_UNKNOWN.
func (r *Registry) Activations(names ...string) ([]Activation, error) {
	out := make([]Activation, 0, len(names))
	for i, name := range names {
		d, ok := r.Get(name)
		if !ok {
			return nil, core.WrapErrorf(core.ErrDetectorUnknown, "detector %q is not registered", name)
		}
		out = append(out, Activation{Detector: d, Priority: i})
	}
	return out, nil
}
