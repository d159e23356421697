package counter

import (
	"context"
	"sync"

	"github.com/missionhq/missionctl/pkg/cerr"
)

// Service hands out sequence values. A process-wide mutex serializes
// read-modify-write cycles so concurrent handlers in this process never
// hand out the same number twice.
type Service struct {
	repo Repository
	mu   sync.Mutex
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Next increments the named counter and returns the new value. A counter
// that has never been written starts at zero, so the first call returns 1.
func (s *Service) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, name)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := s.repo.Put(ctx, &Counter{Name: name, Value: next}); err != nil {
		return 0, err
	}
	return next, nil
}

// Raise advances the named counter to value if value is higher, reporting
// whether it moved. Externally-sourced task numbers come through here so
// the high-water mark never regresses.
func (s *Service) Raise(ctx context.Context, name string, value int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, name)
	if err != nil {
		return false, err
	}
	if value <= current {
		return false, nil
	}
	if err := s.repo.Put(ctx, &Counter{Name: name, Value: value}); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns the counter's value, zero when it has never been written.
func (s *Service) Get(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, name)
}

// Set overwrites the counter unconditionally (used for timestamps).
func (s *Service) Set(ctx context.Context, name string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Put(ctx, &Counter{Name: name, Value: value})
}

func (s *Service) get(ctx context.Context, name string) (int64, error) {
	c, err := s.repo.Get(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return 0, nil
		}
		return 0, err
	}
	return c.Value, nil
}
