package schema

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-tenants/internal/domain"
	"wisefido-tenants/internal/oplog"
)

// TenantConns 租户 schema 连接的来源（由连接池实现）
type TenantConns interface {
	RunInTransaction(ctx context.Context, schemaName string, operations []string, fn func(*sql.Tx) error) error
	Evict(schemaName string)
}

// Manager 租户 schema 的 DDL 生命周期：建 schema、建初始表、删 schema
type Manager interface {
	CreateSchema(ctx context.Context, schemaName string) error
	Bootstrap(ctx context.Context, schemaName string) error
	DropSchema(ctx context.Context, schemaName string) error
}

// PostgresManager Manager 的 Postgres 实现。
// CREATE/DROP SCHEMA 走 control 连接（目标 schema 此时可能不存在），
// 初始建表走连接池里该租户自己的连接，整批 DDL 在一个事务内执行。
type PostgresManager struct {
	control *sql.DB
	conns   TenantConns
	ops     *oplog.Logger
}

var _ Manager = (*PostgresManager)(nil)

func NewPostgresManager(control *sql.DB, conns TenantConns, ops *oplog.Logger) *PostgresManager {
	return &PostgresManager{control: control, conns: conns, ops: ops}
}

func (m *PostgresManager) CreateSchema(ctx context.Context, schemaName string) error {
	if !ValidName(schemaName) {
		return domain.NewValidationError(fmt.Sprintf("invalid schema name %q", schemaName))
	}
	start := time.Now()
	_, err := m.control.ExecContext(ctx, CreateSchemaSQL(schemaName))
	m.ops.Operation("create_schema", schemaName, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	return nil
}

func (m *PostgresManager) Bootstrap(ctx context.Context, schemaName string) error {
	if !ValidName(schemaName) {
		return domain.NewValidationError(fmt.Sprintf("invalid schema name %q", schemaName))
	}
	stmts := BootstrapStatements(schemaName)
	return m.conns.RunInTransaction(ctx, schemaName,
		[]string{"create_tables", "create_indexes"},
		func(tx *sql.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("bootstrap schema %s: %w", schemaName, err)
				}
			}
			return nil
		})
}

func (m *PostgresManager) DropSchema(ctx context.Context, schemaName string) error {
	if !ValidName(schemaName) {
		return domain.NewValidationError(fmt.Sprintf("invalid schema name %q", schemaName))
	}
	// 先把池里的连接踢掉，避免 DROP 被本池自己的连接挡住
	m.conns.Evict(schemaName)

	start := time.Now()
	_, err := m.control.ExecContext(ctx, DropSchemaSQL(schemaName))
	m.ops.Operation("drop_schema", schemaName, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("drop schema %s: %w", schemaName, err)
	}
	return nil
}
