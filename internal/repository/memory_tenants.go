package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"wisefido-tenants/internal/domain"
)

// MemoryTenantsRepo 登记表的内存实现，单元测试和无 DB 开发时使用
type MemoryTenantsRepo struct {
	mu      sync.RWMutex
	tenants map[string]domain.Tenant // clientID -> Tenant
}

var _ TenantsRepository = (*MemoryTenantsRepo)(nil)

func NewMemoryTenantsRepo() *MemoryTenantsRepo {
	return &MemoryTenantsRepo{tenants: map[string]domain.Tenant{}}
}

func (r *MemoryTenantsRepo) Insert(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ClientID]; ok {
		return domain.NewConflictError(t.ClientID)
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tenants[t.ClientID] = *t
	return nil
}

func (r *MemoryTenantsRepo) Get(_ context.Context, clientID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[clientID]
	if !ok {
		return nil, domain.NewNotFoundError(clientID)
	}
	return &t, nil
}

func (r *MemoryTenantsRepo) List(_ context.Context) ([]*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		t := t
		all = append(all, &t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (r *MemoryTenantsRepo) UpdateStatus(_ context.Context, clientID, status, reason string) (*domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[clientID]
	if !ok {
		return nil, domain.NewNotFoundError(clientID)
	}
	t.Status = status
	t.StatusReason = reason
	t.UpdatedAt = time.Now()
	r.tenants[clientID] = t
	return &t, nil
}

func (r *MemoryTenantsRepo) Delete(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[clientID]; !ok {
		return domain.NewNotFoundError(clientID)
	}
	delete(r.tenants, clientID)
	return nil
}

func (r *MemoryTenantsRepo) Exists(_ context.Context, clientID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tenants[clientID]
	return ok, nil
}
