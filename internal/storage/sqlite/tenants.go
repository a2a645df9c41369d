// ABOUTME: Tenant storage operations for SQLite
// ABOUTME: Settings are persisted as JSON so new fields need no migration
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/WildEllie/t3nets/internal/models"
)

// ErrTenantNotFound is returned when no tenant has the requested id
var ErrTenantNotFound = errors.New("tenant not found")

// TenantStore handles tenant persistence
type TenantStore struct {
	db *DB
}

// NewTenantStore creates a new TenantStore
func NewTenantStore(db *DB) *TenantStore {
	return &TenantStore{db: db}
}

// Put inserts or replaces a tenant
func (s *TenantStore) Put(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		return errors.New("tenant id cannot be empty")
	}
	settings, err := json.Marshal(tenant.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode tenant settings: %w", err)
	}
	status := tenant.Status
	if status == "" {
		status = models.TenantActive
	}
	created := tenant.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO tenants (id, name, status, settings, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			settings = excluded.settings
	`, tenant.ID, tenant.Name, status, string(settings), created.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

// Get returns the tenant with id, or ErrTenantNotFound
func (s *TenantStore) Get(ctx context.Context, id string) (*models.Tenant, error) {
	row := s.db.QueryRow(ctx, `SELECT id, name, status, settings, created_at FROM tenants WHERE id = ?`, id)
	tenant, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return tenant, err
}

// List returns all tenants ordered by id
func (s *TenantStore) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, status, settings, created_at FROM tenants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tenant)
	}
	return out, rows.Err()
}

// Delete removes a tenant. Its conversations are left in place.
func (s *TenantStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*models.Tenant, error) {
	var (
		tenant   models.Tenant
		settings string
		created  int64
	)
	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Status, &settings, &created); err != nil {
		return nil, err
	}
	tenant.Settings = models.DefaultTenantSettings()
	if err := json.Unmarshal([]byte(settings), &tenant.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings of tenant %s: %w", tenant.ID, err)
	}
	tenant.CreatedAt = time.UnixMilli(created).UTC()
	return &tenant, nil
}
