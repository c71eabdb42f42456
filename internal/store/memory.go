package store

import (
	"errors"
	"sync"

	"github.com/avritt/raincheck/internal/commute"
)

var (
	// ErrNotFound is returned when no check result has been cached yet.
	ErrNotFound = errors.New("no check result available")
)

// ResultStore is a concurrency-safe most-recent-only cache of check
// results. Each new result for a label overwrites the previous one;
// nothing is persisted beyond the last value.
type ResultStore struct {
	mu sync.RWMutex

	byLabel map[commute.Label]commute.CheckResult
	latest  *commute.CheckResult
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		byLabel: make(map[commute.Label]commute.CheckResult),
	}
}

// Save overwrites the cached result for the result's label and the overall
// latest value.
func (s *ResultStore) Save(result commute.CheckResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byLabel[result.Label] = result
	s.latest = &result
}

// Latest returns the most recent result across both labels.
func (s *ResultStore) Latest() (commute.CheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return commute.CheckResult{}, ErrNotFound
	}
	return *s.latest, nil
}

// LatestFor returns the most recent result for one commute window.
func (s *ResultStore) LatestFor(label commute.Label) (commute.CheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.byLabel[label]
	if !ok {
		return commute.CheckResult{}, ErrNotFound
	}
	return result, nil
}
