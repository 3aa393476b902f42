package tasks

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps tasks in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]Task
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[int64]Task)}
}

func (r *MemoryRepository) Create(_ context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	t.ID = r.nextID
	r.items[t.ID] = *t
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *MemoryRepository) List(_ context.Context, ownerID int64, offset, limit int) ([]Task, error) {
	r.mu.RLock()
	owned := make([]Task, 0)
	for _, t := range r.items {
		if t.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	if offset >= len(owned) {
		return []Task{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (r *MemoryRepository) Count(_ context.Context, ownerID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, t := range r.items {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Update(_ context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[t.ID]; !ok {
		return ErrNotFound
	}
	r.items[t.ID] = *t
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) DeleteByOwner(_ context.Context, ownerID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.items {
		if t.OwnerID == ownerID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}
