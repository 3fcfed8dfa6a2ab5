package repository

import (
	"context"

	"wisefido-tenants/internal/domain"
)

// TenantsRepository 租户登记表（control schema 的 tenants 表）访问接口
type TenantsRepository interface {
	// Insert 写入新登记行；client_id 重复时返回 ConflictError
	Insert(ctx context.Context, t *domain.Tenant) error
	// Get 按 client_id 取登记行；不存在返回 NotFoundError
	Get(ctx context.Context, clientID string) (*domain.Tenant, error)
	// List 返回全部登记行，按创建时间倒序
	List(ctx context.Context) ([]*domain.Tenant, error)
	// UpdateStatus 更新状态（可带原因），返回更新后的行；不存在返回 NotFoundError
	UpdateStatus(ctx context.Context, clientID, status, reason string) (*domain.Tenant, error)
	// Delete 删除登记行；不存在返回 NotFoundError
	Delete(ctx context.Context, clientID string) error
	// Exists 判断 client_id 是否已登记
	Exists(ctx context.Context, clientID string) (bool, error)
}
