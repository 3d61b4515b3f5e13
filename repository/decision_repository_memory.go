package repository

import (
	"context"
	"sync"

	"credit-risk-agent/domain"
)

// DecisionRepositoryMemory is an in-memory DecisionRepository that keeps at
// most capacity records, dropping the oldest first.
type DecisionRepositoryMemory struct {
	mu       sync.RWMutex
	capacity int
	data     []domain.DecisionRecord
}

// NewDecisionRepositoryMemory creates a new in-memory decision repository.
// A capacity of zero or less keeps every record.
func NewDecisionRepositoryMemory(capacity int) *DecisionRepositoryMemory {
	return &DecisionRepositoryMemory{
		capacity: capacity,
		data:     []domain.DecisionRecord{},
	}
}

// Save stores the record in memory.
func (r *DecisionRepositoryMemory) Save(_ context.Context, record domain.DecisionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, record)
	if r.capacity > 0 && len(r.data) > r.capacity {
		r.data = append([]domain.DecisionRecord(nil), r.data[len(r.data)-r.capacity:]...)
	}
	return nil
}

func (r *DecisionRepositoryMemory) FindByID(_ context.Context, id string) (domain.DecisionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.data) - 1; i >= 0; i-- {
		if r.data[i].ID == id {
			return r.data[i], nil
		}
	}
	return domain.DecisionRecord{}, ErrDecisionNotFound
}

func (r *DecisionRepositoryMemory) List(_ context.Context, limit int) ([]domain.DecisionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.data) {
		limit = len(r.data)
	}
	out := make([]domain.DecisionRecord, 0, limit)
	for i := len(r.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}
