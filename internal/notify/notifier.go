package notify

import (
	"context"
	"time"

	"wisefido-tenants/internal/domain"

	"github.com/google/uuid"
)

// 租户生命周期事件名
const (
	EventTenantCreated       = "tenant.created"
	EventTenantStatusChanged = "tenant.status_changed"
	EventTenantDeleted       = "tenant.deleted"
)

// Event 对外发布的租户生命周期事件载荷
type Event struct {
	EventID    string    `json:"event_id"`
	Event      string    `json:"event"`
	ClientID   string    `json:"client_id"`
	SchemaName string    `json:"schema_name"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier 生命周期事件发布方。实现必须自己消化失败（记日志），
// 不允许把发布错误抛回 provisioning 流程。
type Notifier interface {
	TenantEvent(ctx context.Context, event string, t *domain.Tenant)
}

func newEvent(event string, t *domain.Tenant) Event {
	return Event{
		EventID:    uuid.NewString(),
		Event:      event,
		ClientID:   t.ClientID,
		SchemaName: t.SchemaName,
		Status:     t.Status,
		Timestamp:  time.Now(),
	}
}

// Multi 把同一事件扇出给多个 Notifier
type Multi []Notifier

func (m Multi) TenantEvent(ctx context.Context, event string, t *domain.Tenant) {
	for _, n := range m {
		n.TenantEvent(ctx, event, t)
	}
}
