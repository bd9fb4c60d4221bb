// internal/repository/memory_repository.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"printer-bridge/internal/model"
)

const defaultMemoryEntries = 500

// memoryRepository keeps the most recent journal entries in a bounded ring
type memoryRepository struct {
	mu      sync.RWMutex
	entries []*model.OperationRecord
	index   map[uuid.UUID]int
	next    int
}

// NewMemoryRepository creates an in-memory journal holding up to capacity
// entries. The oldest entry is overwritten once it is full.
func NewMemoryRepository(capacity int) OperationRepository {
	if capacity <= 0 {
		capacity = defaultMemoryEntries
	}
	return &memoryRepository{
		entries: make([]*model.OperationRecord, capacity),
		index:   make(map[uuid.UUID]int, capacity),
	}
}

func (r *memoryRepository) Create(ctx context.Context, op *model.OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[op.ID]; exists {
		return fmt.Errorf("operation %s already exists", op.ID)
	}
	if old := r.entries[r.next]; old != nil {
		delete(r.index, old.ID)
	}

	r.entries[r.next] = copyRecord(op)
	r.index[op.ID] = r.next
	r.next = (r.next + 1) % len(r.entries)
	return nil
}

func (r *memoryRepository) Update(ctx context.Context, op *model.OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.index[op.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, op.ID)
	}
	r.entries[slot] = copyRecord(op)
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OperationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRecord(r.entries[slot]), nil
}

func (r *memoryRepository) List(ctx context.Context, filter model.OperationFilter) ([]*model.OperationRecord, int, error) {
	r.mu.RLock()
	var matched []*model.OperationRecord
	for _, op := range r.entries {
		if op != nil && matches(op, filter) {
			matched = append(matched, copyRecord(op))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*model.OperationRecord{}, total, nil
	}
	end := offset + normalizeLimit(filter.Limit)
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for i, op := range r.entries {
		if op != nil && op.StartedAt.Before(cutoff) {
			delete(r.index, op.ID)
			r.entries[i] = nil
			deleted++
		}
	}
	return deleted, nil
}

func matches(op *model.OperationRecord, filter model.OperationFilter) bool {
	if filter.Method != "" && op.Method != filter.Method {
		return false
	}
	if filter.ConnectionKey != "" && (op.ConnectionKey == nil || *op.ConnectionKey != filter.ConnectionKey) {
		return false
	}
	if filter.Status != "" && op.Status != filter.Status {
		return false
	}
	if filter.Since != nil && op.StartedAt.Before(*filter.Since) {
		return false
	}
	return true
}

// copyRecord returns a shallow copy so callers cannot mutate stored entries
func copyRecord(op *model.OperationRecord) *model.OperationRecord {
	c := *op
	return &c
}
