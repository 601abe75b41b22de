package staff

import (
	"context"
	"sort"
	"sync"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Repository stores staff members keyed by login. Get returns an
// apperr.NotFoundError for unknown logins.
type Repository interface {
	Get(ctx context.Context, login string) (*Member, error)
	Put(ctx context.Context, m *Member) error
	List(ctx context.Context) ([]*Member, error)
}

type memoryRepo struct {
	mu    sync.RWMutex
	store map[string]Member
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: make(map[string]Member)}
}

func (r *memoryRepo) Get(_ context.Context, login string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.store[login]
	if !ok {
		return nil, apperr.NotFound("staff member", login)
	}
	return &m, nil
}

func (r *memoryRepo) Put(_ context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[m.Login] = *m
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Member, 0, len(r.store))
	for _, m := range r.store {
		m := m
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}
