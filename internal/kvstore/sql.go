package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	Schema string
	Get    string
	Upsert string
	Delete string
}

var (
	SQLite = Dialect{
		Name: "sqlite3",
		Schema: `CREATE TABLE IF NOT EXISTS kv_store (
			name       TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at TIMESTAMP NULL
		)`,
		Get: `SELECT value, expires_at FROM kv_store WHERE name = ?`,
		Upsert: `INSERT INTO kv_store (name, value, expires_at) VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		Delete: `DELETE FROM kv_store WHERE name = ?`,
	}

	Postgres = Dialect{
		Name: "pgx",
		Schema: `CREATE TABLE IF NOT EXISTS kv_store (
			name       TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NULL
		)`,
		Get: `SELECT value, expires_at FROM kv_store WHERE name = $1`,
		Upsert: `INSERT INTO kv_store (name, value, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		Delete: `DELETE FROM kv_store WHERE name = $1`,
	}
)

// SQL keeps entries in a single kv_store table of a database/sql handle.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect, now: time.Now}
}

// Migrate creates the kv_store table when missing.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Schema); err != nil {
		return fmt.Errorf("kvstore %s migrate: %w", s.dialect.Name, err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value   []byte
		expires sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, s.dialect.Get, key).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore get %s: %w", key, err)
	}
	if expires.Valid && !s.now().Before(expires.Time) {
		_ = s.Delete(ctx, key)
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: s.now().Add(ttl).UTC(), Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, value, expires); err != nil {
		return fmt.Errorf("kvstore set %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Delete, key); err != nil {
		return fmt.Errorf("kvstore delete %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Healthy(ctx context.Context) bool {
	return s.db != nil && s.db.PingContext(ctx) == nil
}
