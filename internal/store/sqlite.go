package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore holds the selection in a single-row SQLite table so it
// survives restarts, the durable equivalent of the browser's key-value
// storage.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*core.Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tenant_id, tenant_name, tenant_type FROM selected_tenant WHERE id = 1`)

	var t core.Tenant
	if err := row.Scan(&t.TenantID, &t.TenantName, &t.TenantType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load selected tenant: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStore) Save(ctx context.Context, t core.Tenant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selected_tenant (id, tenant_id, tenant_name, tenant_type)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   tenant_id = excluded.tenant_id,
		   tenant_name = excluded.tenant_name,
		   tenant_type = excluded.tenant_type`,
		t.TenantID, t.TenantName, t.TenantType)
	if err != nil {
		return fmt.Errorf("save selected tenant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM selected_tenant WHERE id = 1`); err != nil {
		return fmt.Errorf("clear selected tenant: %w", err)
	}
	return nil
}
