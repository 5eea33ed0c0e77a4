package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/internal/domain/profile"
)

// memoryProfileRepo keeps profiles in process. Selected with store.driver=memory.
type memoryProfileRepo struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*profile.Profile
}

func NewMemoryProfileRepo() profile.Repository {
	return &memoryProfileRepo{profiles: make(map[uuid.UUID]*profile.Profile)}
}

func (r *memoryProfileRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[ownerID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *memoryProfileRepo) FindAll(_ context.Context) ([]*profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*profile.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryProfileRepo) Insert(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.OwnerID]; ok {
		return profile.ErrVersionConflict
	}
	p.Version = 1
	r.profiles[p.OwnerID] = p.Clone()
	return nil
}

func (r *memoryProfileRepo) Replace(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.profiles[p.OwnerID]
	if !ok || stored.Version != p.Version {
		return profile.ErrVersionConflict
	}
	p.Version++
	r.profiles[p.OwnerID] = p.Clone()
	return nil
}

func (r *memoryProfileRepo) DeleteByOwner(_ context.Context, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, ownerID)
	return nil
}
