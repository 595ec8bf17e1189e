package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects the upsert syntax used by SQLBackend.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// SQLBackend stores blobs in a two column table:
//
//	kv_store(k VARCHAR(191) PRIMARY KEY, v LONGTEXT)
//
// It works with the MySQL and SQLite drivers opened by the database
// package.  Callers run Migrate once at startup.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLBackend wraps an open database handle.
func NewSQLBackend(db *sql.DB, dialect Dialect) *SQLBackend {
	if db == nil {
		panic("nil db passed to NewSQLBackend")
	}
	return &SQLBackend{db: db, dialect: dialect}
}

// Migrate creates the kv_store table when it does not exist.
func (s *SQLBackend) Migrate(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS kv_store (k VARCHAR(191) NOT NULL PRIMARY KEY, v LONGTEXT NOT NULL)`
	if s.dialect == DialectSQLite {
		q = `CREATE TABLE IF NOT EXISTS kv_store (k TEXT NOT NULL PRIMARY KEY, v TEXT NOT NULL)`
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("migrate kv_store: %w", err)
	}
	return nil
}

func (s *SQLBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM kv_store WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (s *SQLBackend) Store(ctx context.Context, key string, data []byte) error {
	q := `INSERT INTO kv_store (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`
	if s.dialect == DialectSQLite {
		q = `INSERT INTO kv_store (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`
	}
	_, err := s.db.ExecContext(ctx, q, key, string(data))
	return err
}

func (s *SQLBackend) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE k = ?`, key)
	return err
}

func (s *SQLBackend) Close() error { return s.db.Close() }
