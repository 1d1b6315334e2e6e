package calls

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory session repository useful for tests and early
// development. Not intended for production.
type MemoryRepo struct {
	mu         sync.Mutex
	sessions   map[string]CallSession // keyed by session id
	byProvider map[string]string      // provider call id -> session id
	recordings []CallRecording
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions:   map[string]CallSession{},
		byProvider: map[string]string{},
	}
}

func (r *MemoryRepo) Insert(ctx context.Context, s CallSession) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	if s.ProviderCallID != "" {
		r.byProvider[s.ProviderCallID] = s.ID
	}
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, s CallSession) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	if s.ProviderCallID != "" {
		r.byProvider[s.ProviderCallID] = s.ID
	}
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (CallSession, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok, nil
}

func (r *MemoryRepo) GetByProviderID(ctx context.Context, providerCallID string) (CallSession, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byProvider[providerCallID]
	if !ok {
		return CallSession{}, false, nil
	}
	s, ok := r.sessions[id]
	return s, ok, nil
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]CallSession, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []CallSession
	for _, s := range r.sessions {
		if f.AgentID != "" && s.AgentID != f.AgentID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && s.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && s.CreatedAt.After(f.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Offset >= len(out) {
		return nil, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[f.Offset:end], nil
}

func (r *MemoryRepo) UpsertRecording(ctx context.Context, rec CallRecording) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.recordings {
		if existing.ProviderRecordingID == rec.ProviderRecordingID {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			r.recordings[i] = rec
			return nil
		}
	}
	r.recordings = append(r.recordings, rec)
	return nil
}

// Recordings returns a copy of stored recordings, for tests.
func (r *MemoryRepo) Recordings() []CallRecording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecording, len(r.recordings))
	copy(out, r.recordings)
	return out
}
