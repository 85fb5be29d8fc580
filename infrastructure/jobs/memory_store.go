// Package jobs provides the in-memory job store used for run tracking. State
// lives for the lifetime of the process; a restart forgets all jobs, and
// clients are expected to resubmit.
package jobs

import (
	"sync"

	"slidesmith/domain/job"
	apperrors "slidesmith/pkg/errors"
)

// MemoryStore is a thread-safe in-memory job table with a separate
// active-identity set backing the duplicate-submission guard.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*job.Job

	guardMu sync.Mutex
	active  map[string]bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:   make(map[string]*job.Job),
		active: make(map[string]bool),
	}
}

// Create registers a new job. Duplicate ids are rejected.
func (s *MemoryStore) Create(j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.ID]; exists {
		return apperrors.NewConflictError("job " + j.ID + " already exists")
	}
	s.jobs[j.ID] = j
	return nil
}

// Get returns a copy of the job so callers cannot mutate stored state.
func (s *MemoryStore) Get(id string) (*job.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *j
	return &copied, true
}

// Update applies fn to the stored job under the write lock.
func (s *MemoryStore) Update(id string, fn func(*job.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return apperrors.NewNotFoundError("job " + id)
	}
	fn(j)
	return nil
}

// Acquire claims the identity for a new run. Returns false when the identity
// already has a run in flight.
func (s *MemoryStore) Acquire(identity string) bool {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()

	if s.active[identity] {
		return false
	}
	s.active[identity] = true
	return true
}

// Release frees the identity once its run reaches a terminal state.
func (s *MemoryStore) Release(identity string) {
	s.guardMu.Lock()
	defer s.guardMu.Unlock()
	delete(s.active, identity)
}
