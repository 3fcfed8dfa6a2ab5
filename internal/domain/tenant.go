package domain

import "time"

// 租户状态（registry.status）
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// ValidStatus 判断是否为合法的租户状态值
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// Tenant 租户登记表条目（control schema 的 tenants 表，一行一个租户）
// client_id 和 schema_name 创建后不可变；schema_name = prefix + client_id
type Tenant struct {
	ClientID     string    `json:"client_id"`
	SchemaName   string    `json:"schema_name"`
	TenantName   string    `json:"tenant_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	StatusReason string    `json:"status_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
