package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wisefido-tenants/internal/domain"
	"wisefido-tenants/internal/notify"
	"wisefido-tenants/internal/repository"
	"wisefido-tenants/internal/schema"
	"wisefido-tenants/internal/store"

	"go.uber.org/zap"
)

const tenantCacheTTL = 5 * time.Minute

// TenantService 租户生命周期编排：登记、建 schema、激活、停用、销毁。
// 状态机：(none) -> pending -> active <-> suspended -> deleted（deleted 终态）。
type TenantService struct {
	repo     repository.TenantsRepository
	schemas  schema.Manager
	prefix   string
	cache    store.KV        // 可为 nil（禁用描述符缓存）
	notifier notify.Notifier // 可为 nil（禁用事件发布）
	logger   *zap.Logger
}

func NewTenantService(
	repo repository.TenantsRepository,
	schemas schema.Manager,
	prefix string,
	cache store.KV,
	notifier notify.Notifier,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		repo:     repo,
		schemas:  schemas,
		prefix:   prefix,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateTenantRequest 创建租户请求
type CreateTenantRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// CreateTenant 创建租户：唯一性检查 -> 写 pending 登记行 -> 建 schema ->
// 初始建表 -> 置 active。任何一步失败都先尽力清理（删 schema、删登记行）
// 再把原始错误抛回；清理失败只记日志，不顶替原始错误。
func (s *TenantService) CreateTenant(ctx context.Context, req CreateTenantRequest) (*domain.Tenant, error) {
	if !schema.ValidClientID(req.ClientID) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid client_id %q: must match [a-z0-9][a-z0-9_]{1,30}[a-z0-9]", req.ClientID))
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, domain.NewValidationError("valid email is required")
	}

	// 冲突在任何副作用之前报出
	exists, err := s.repo.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check tenant uniqueness: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError(req.ClientID)
	}

	t := &domain.Tenant{
		ClientID:   req.ClientID,
		SchemaName: schema.Name(s.prefix, req.ClientID),
		TenantName: req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Notes:      req.Notes,
		Status:     domain.StatusPending,
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}

	if err := s.schemas.CreateSchema(ctx, t.SchemaName); err != nil {
		s.cleanupFailedCreate(ctx, t)
		return nil, s.provisioningError(req.ClientID, "create schema", err)
	}
	if err := s.schemas.Bootstrap(ctx, t.SchemaName); err != nil {
		s.cleanupFailedCreate(ctx, t)
		return nil, s.provisioningError(req.ClientID, "bootstrap schema", err)
	}

	active, err := s.repo.UpdateStatus(ctx, t.ClientID, domain.StatusActive, "")
	if err != nil {
		s.cleanupFailedCreate(ctx, t)
		return nil, s.provisioningError(req.ClientID, "activate tenant", err)
	}

	s.logger.Info("tenant provisioned",
		zap.String("client_id", active.ClientID),
		zap.String("schema", active.SchemaName),
	)
	s.cacheSet(ctx, active)
	s.publish(ctx, notify.EventTenantCreated, active)
	return active, nil
}

// cleanupFailedCreate 尽力回收半成品：删 schema（IF EXISTS）、删登记行。
// 失败只记日志，原始错误由调用方抛回。
func (s *TenantService) cleanupFailedCreate(ctx context.Context, t *domain.Tenant) {
	if err := s.schemas.DropSchema(ctx, t.SchemaName); err != nil {
		s.logger.Warn("cleanup: drop schema failed",
			zap.String("client_id", t.ClientID),
			zap.String("schema", t.SchemaName),
			zap.Error(err),
		)
	}
	if err := s.repo.Delete(ctx, t.ClientID); err != nil && !domain.IsNotFound(err) {
		s.logger.Warn("cleanup: remove registry row failed",
			zap.String("client_id", t.ClientID),
			zap.Error(err),
		)
	}
}

// provisioningError 保留已分类的连接错误，其余包成 ProvisioningError
func (s *TenantService) provisioningError(clientID, step string, err error) error {
	if domain.IsConnection(err) {
		return err
	}
	return domain.NewProvisioningError(clientID, fmt.Sprintf("tenant %q provisioning failed: %s", clientID, step), err)
}

// GetTenant 按 client_id 取租户描述符（带 redis 读缓存）
func (s *TenantService) GetTenant(ctx context.Context, clientID string) (*domain.Tenant, error) {
	if t := s.cacheGet(ctx, clientID); t != nil {
		return t, nil
	}
	t, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, t)
	return t, nil
}

// ListTenants 返回全部租户，按创建时间倒序
func (s *TenantService) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	return s.repo.List(ctx)
}

// UpdateTenantStatus 管理员状态变更。active<->suspended 可逆；
// 目标为 deleted 时触发完整销毁；deleted 是终态，任何转出都被拒绝；
// 已激活的租户不能退回 pending。
func (s *TenantService) UpdateTenantStatus(ctx context.Context, clientID, newStatus, reason string) (*domain.Tenant, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid status %q", newStatus))
	}

	cur, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if cur.Status == domain.StatusDeleted {
		return nil, domain.NewValidationError(fmt.Sprintf("tenant %q is deleted; deleted is a terminal status", clientID))
	}
	if newStatus == domain.StatusPending && cur.Status != domain.StatusPending {
		return nil, domain.NewValidationError("cannot transition back to pending")
	}
	if newStatus == domain.StatusDeleted {
		if err := s.DeleteTenant(ctx, clientID); err != nil {
			return nil, err
		}
		deleted := *cur
		deleted.Status = domain.StatusDeleted
		deleted.StatusReason = reason
		deleted.UpdatedAt = time.Now()
		return &deleted, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, clientID, newStatus, reason)
	if err != nil {
		return nil, err
	}
	s.cacheDel(ctx, clientID)
	s.publish(ctx, notify.EventTenantStatusChanged, updated)
	return updated, nil
}

// DeleteTenant 销毁租户：DROP SCHEMA ... CASCADE -> 删登记行。不可逆。
// schema 删除失败时登记行保留，错误抛回（不会留下无主 schema）。
func (s *TenantService) DeleteTenant(ctx context.Context, clientID string) error {
	cur, err := s.repo.Get(ctx, clientID)
	if err != nil {
		return err
	}

	if err := s.schemas.DropSchema(ctx, cur.SchemaName); err != nil {
		return s.provisioningError(clientID, "drop schema", err)
	}
	if err := s.repo.Delete(ctx, clientID); err != nil {
		return err
	}

	s.logger.Info("tenant destroyed",
		zap.String("client_id", clientID),
		zap.String("schema", cur.SchemaName),
	)
	s.cacheDel(ctx, clientID)
	cur.Status = domain.StatusDeleted
	s.publish(ctx, notify.EventTenantDeleted, cur)
	return nil
}

// TenantHealth 租户健康检查结果
type TenantHealth struct {
	Status  string `json:"status"` // healthy | unhealthy | error
	Message string `json:"message"`
}

// CheckTenantHealth 基于登记状态报告健康：只有 active 视为 healthy。
// 不探测租户连接（池内连接由 HealthChecker 负责）。
func (s *TenantService) CheckTenantHealth(ctx context.Context, clientID string) *TenantHealth {
	t, err := s.GetTenant(ctx, clientID)
	if err != nil {
		if domain.IsNotFound(err) {
			return &TenantHealth{Status: "error", Message: fmt.Sprintf("tenant %q not found", clientID)}
		}
		return &TenantHealth{Status: "error", Message: err.Error()}
	}
	if t.Status == domain.StatusActive {
		return &TenantHealth{Status: "healthy", Message: "tenant is active"}
	}
	return &TenantHealth{Status: "unhealthy", Message: fmt.Sprintf("tenant status is %s", t.Status)}
}

func (s *TenantService) cacheKey(clientID string) string {
	return "tenant:" + clientID
}

func (s *TenantService) cacheGet(ctx context.Context, clientID string) *domain.Tenant {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(clientID))
	if err != nil {
		if err != store.ErrMiss {
			s.logger.Debug("tenant cache read failed", zap.String("client_id", clientID), zap.Error(err))
		}
		return nil
	}
	var t domain.Tenant
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil
	}
	return &t
}

func (s *TenantService) cacheSet(ctx context.Context, t *domain.Tenant) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(t.ClientID), string(raw), tenantCacheTTL); err != nil {
		s.logger.Debug("tenant cache write failed", zap.String("client_id", t.ClientID), zap.Error(err))
	}
}

func (s *TenantService) cacheDel(ctx context.Context, clientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(clientID)); err != nil {
		s.logger.Debug("tenant cache invalidation failed", zap.String("client_id", clientID), zap.Error(err))
	}
}

func (s *TenantService) publish(ctx context.Context, event string, t *domain.Tenant) {
	if s.notifier == nil {
		return
	}
	s.notifier.TenantEvent(ctx, event, t)
}
