// Package store keeps an in-memory registry of engine runs so callers
// can watch progress and fetch results after the fact. It is bounded:
// oldest runs are evicted at capacity and idle runs expire after a TTL.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/alphalab/internal/core"
)

// Status represents the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the run has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Run records one engine invocation: a backtest, a sweep or a scan.
type Run struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store manages runs. All methods are safe for concurrent use.
type Store struct {
	runs    map[string]*Run
	order   []string // insertion order, oldest first
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
}

// DefaultMaxRuns bounds the registry when the caller does not.
const DefaultMaxRuns = 128

// New creates a run store holding at most maxSize runs. A run whose
// last update is older than ttl is expired; ttl <= 0 disables expiry.
func New(maxSize int, ttl time.Duration) *Store {
	if maxSize < 1 {
		maxSize = DefaultMaxRuns
	}
	return &Store{
		runs:    make(map[string]*Run),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create registers a new pending run and returns a copy of it.
func (s *Store) Create(kind string) Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(time.Now())

	// Evict oldest if still at capacity after pruning.
	for len(s.runs) >= s.maxSize && len(s.order) > 0 {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}

	now := time.Now()
	run := &Run{
		ID:        s.nextIDLocked(),
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)

	return *run
}

// Get retrieves a copy of a run by ID.
func (s *Store) Get(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok || s.expired(run, time.Now()) {
		return Run{}, core.ErrRunNotFound
	}
	return *run, nil
}

// Update modifies a run through fn and stamps UpdatedAt.
func (s *Store) Update(id string, fn func(*Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok || s.expired(run, time.Now()) {
		return core.ErrRunNotFound
	}

	fn(run)
	run.UpdatedAt = time.Now()
	return nil
}

// Delete removes a run.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return core.ErrRunNotFound
	}
	delete(s.runs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns copies of all live runs, oldest first.
func (s *Store) List() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]Run, 0, len(s.order))
	for _, id := range s.order {
		if run, ok := s.runs[id]; ok && !s.expired(run, now) {
			out = append(out, *run)
		}
	}
	return out
}

// Len reports the number of live runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, run := range s.runs {
		if !s.expired(run, now) {
			n++
		}
	}
	return n
}

func (s *Store) expired(run *Run, now time.Time) bool {
	return s.ttl > 0 && now.Sub(run.UpdatedAt) > s.ttl
}

// pruneLocked drops expired runs. Caller holds the write lock.
func (s *Store) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	kept := s.order[:0]
	for _, id := range s.order {
		run, ok := s.runs[id]
		if !ok {
			continue
		}
		if s.expired(run, now) {
			delete(s.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}

// nextIDLocked returns a short ID unused in this store. Caller holds
// the write lock.
func (s *Store) nextIDLocked() string {
	for {
		id := uuid.NewString()[:8]
		if _, ok := s.runs[id]; !ok {
			return id
		}
	}
}
