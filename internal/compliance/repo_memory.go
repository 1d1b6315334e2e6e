package compliance

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory DNC registry useful for tests and early
// development. Not intended for production.
type MemoryRepo struct {
	mu      sync.Mutex
	entries map[string]DNCEntry // keyed by phone number
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{entries: map[string]DNCEntry{}}
}

func (r *MemoryRepo) Find(ctx context.Context, number string) (DNCEntry, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[number]
	return e, ok, nil
}

func (r *MemoryRepo) FindAny(ctx context.Context, numbers []string) (map[string]DNCEntry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]DNCEntry)
	for _, n := range numbers {
		if e, ok := r.entries[n]; ok {
			out[n] = e
		}
	}
	return out, nil
}

func (r *MemoryRepo) Add(ctx context.Context, e DNCEntry) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.PhoneNumber]; ok {
		return ErrAlreadyListed
	}
	r.entries[e.PhoneNumber] = e
	return nil
}

func (r *MemoryRepo) Remove(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for num, e := range r.entries {
		if e.ID == id {
			delete(r.entries, num)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, offset, limit int) ([]DNCEntry, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]DNCEntry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].AddedAt.After(all[j].AddedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
