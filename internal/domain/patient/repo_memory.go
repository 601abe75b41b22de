package patient

import (
	"context"
	"sort"
	"sync"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

type memoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Patient
}

func NewMemoryRepo() Repository {
	return &memoryRepo{store: make(map[string]*Patient)}
}

func (r *memoryRepo) Get(_ context.Context, cpf string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[cpf]
	if !ok {
		return nil, apperr.NotFound("patient", cpf)
	}
	return p.clone(), nil
}

func (r *memoryRepo) Put(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[p.CPF] = p.clone()
	return nil
}

func (r *memoryRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.store))
	for k := range r.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := len(keys)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	out := make([]*Patient, 0, end-offset)
	for _, k := range keys[offset:end] {
		out = append(out, r.store[k].clone())
	}
	return out, total, nil
}
