package transaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu          sync.RWMutex
	byID        map[string]Record
	byReference map[string]string // reference -> id
}

// NewMemoryStore builds a concurrency-safe in-memory record store for tests
// and database-less development.
func NewMemoryStore() Store {
	return &memoryStore{
		byID:        make(map[string]Record),
		byReference: make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byReference[rec.Reference]; exists {
		return ErrDuplicateReference
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.byID[rec.ID] = rec
	s.byReference[rec.Reference] = rec.ID
	return nil
}

func (s *memoryStore) FindByReference(_ context.Context, reference string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byReference[reference]
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *memoryStore) GetForAccount(_ context.Context, accountID, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok || rec.AccountID != accountID {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *memoryStore) List(_ context.Context, accountID string, f Filter) ([]Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for _, rec := range s.byID {
		if rec.AccountID != accountID {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		matched = append(matched, rec)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id string, status Status) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if rec.Status == StatusSuccess {
		return rec, ErrAlreadySettled
	}
	if !CanTransition(rec.Status, status) {
		return Record{}, ErrInvalidTransition
	}
	rec.Status = status
	s.byID[id] = rec
	return rec, nil
}

func (s *memoryStore) Settle(_ context.Context, reference string, newBalance int64, completedAt time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byReference[reference]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec := s.byID[id]
	if rec.Status == StatusSuccess {
		return rec, ErrAlreadySettled
	}
	rec.Status = StatusSuccess
	rec.NewBalance = newBalance
	done := completedAt.UTC()
	rec.CompletedAt = &done
	s.byID[id] = rec
	return rec, nil
}
