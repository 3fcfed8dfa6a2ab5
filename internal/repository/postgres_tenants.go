package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wisefido-tenants/internal/domain"

	"github.com/lib/pq"
)

// PostgresTenantsRepository 租户登记表的 Postgres 实现（control schema）
type PostgresTenantsRepository struct {
	db *sql.DB
}

var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

// EnsureRegistry 确保登记表存在（服务启动时调用一次）
func (r *PostgresTenantsRepository) EnsureRegistry(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenants (
			client_id VARCHAR(64) PRIMARY KEY,
			schema_name VARCHAR(64) NOT NULL UNIQUE,
			tenant_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(32),
			notes TEXT,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			status_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("ensure tenants registry: %w", err)
	}
	return nil
}

const tenantColumns = `
	client_id,
	schema_name,
	tenant_name,
	email,
	COALESCE(phone, '') AS phone,
	COALESCE(notes, '') AS notes,
	status,
	COALESCE(status_reason, '') AS status_reason,
	created_at,
	updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ClientID,
		&t.SchemaName,
		&t.TenantName,
		&t.Email,
		&t.Phone,
		&t.Notes,
		&t.Status,
		&t.StatusReason,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTenantsRepository) Insert(ctx context.Context, t *domain.Tenant) error {
	query := `
		INSERT INTO tenants (client_id, schema_name, tenant_name, email, phone, notes, status)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.ClientID, t.SchemaName, t.TenantName, t.Email, t.Phone, t.Notes, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.NewConflictError(t.ClientID)
		}
		return fmt.Errorf("insert tenant %s: %w", t.ClientID, err)
	}
	return nil
}

func (r *PostgresTenantsRepository) Get(ctx context.Context, clientID string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE client_id = $1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(clientID)
		}
		return nil, fmt.Errorf("get tenant %s: %w", clientID, err)
	}
	return t, nil
}

func (r *PostgresTenantsRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresTenantsRepository) UpdateStatus(ctx context.Context, clientID, status, reason string) (*domain.Tenant, error) {
	query := `
		UPDATE tenants
		SET status = $2, status_reason = NULLIF($3, ''), updated_at = NOW()
		WHERE client_id = $1
		RETURNING ` + tenantColumns
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, clientID, status, reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(clientID)
		}
		return nil, fmt.Errorf("update tenant %s status: %w", clientID, err)
	}
	return t, nil
}

func (r *PostgresTenantsRepository) Delete(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete tenant %s: %w", clientID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError(clientID)
	}
	return nil
}

func (r *PostgresTenantsRepository) Exists(ctx context.Context, clientID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE client_id = $1)`, clientID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tenant %s exists: %w", clientID, err)
	}
	return exists, nil
}
