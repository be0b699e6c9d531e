package profilerepo

import (
	"context"
	"sync"

	"github.com/yanqian/kisanmitra/internal/domain/profile"
	"github.com/yanqian/kisanmitra/pkg/util"
)

// MemoryRepository provides an in-memory profile store for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]profile.Profile
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]profile.Profile)}
}

// Get returns the profile for a user.
func (r *MemoryRepository) Get(_ context.Context, userID string) (profile.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	return p, ok, nil
}

// Upsert stores or replaces the profile.
func (r *MemoryRepository) Upsert(_ context.Context, p profile.Profile) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = util.NowUTC()
	}
	r.profiles[p.UserID] = p
	return p, nil
}

var _ profile.Repository = (*MemoryRepository)(nil)
