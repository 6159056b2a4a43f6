package availability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type dayKey struct {
	doctorID uuid.UUID
	day      time.Weekday
}

// InMemoryStore is a Store backed by a map, used in tests and local runs
// without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	windows map[dayKey]Window
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{windows: make(map[dayKey]Window)}
}

func (s *InMemoryStore) Get(ctx context.Context, doctorID uuid.UUID, day time.Weekday) (*Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[dayKey{doctorID, day}]
	if !ok {
		return nil, ErrNoWindow
	}
	return &w, nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, doctorID uuid.UUID, day time.Weekday, start, end TimeOfDay) (*Window, error) {
	if start >= end {
		return nil, ErrInvalidRange
	}
	w := Window{DoctorID: doctorID, Day: day, Start: start, End: end}

	s.mu.Lock()
	s.windows[dayKey{doctorID, day}] = w
	s.mu.Unlock()

	return &w, nil
}

func (s *InMemoryStore) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var windows []*Window
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w, ok := s.windows[dayKey{doctorID, d}]; ok {
			copied := w
			windows = append(windows, &copied)
		}
	}
	return windows, nil
}
