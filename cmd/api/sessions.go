package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"campussecurity/internal/config"
	"campussecurity/internal/kvstore"
	"campussecurity/internal/store"
)

const redisSessionPrefix = "campus:"

// openSessionStore selects the KV backend named by SESSION_BACKEND. The
// returned close func releases any database handle it opened.
func openSessionStore(ctx context.Context, cfg config.App, rdb *redis.Client) (kvstore.Store, func(), error) {
	noop := func() {}
	var (
		db      *sql.DB
		dialect kvstore.Dialect
		err     error
	)
	switch cfg.SessionBackend {
	case "memory":
		return kvstore.NewMemory(), noop, nil
	case "redis":
		return kvstore.NewRedis(rdb, redisSessionPrefix), noop, nil
	case "sqlite":
		db, err = store.OpenSQLite(ctx, cfg.SQLitePath)
		dialect = kvstore.SQLite
	case "postgres":
		db, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
		dialect = kvstore.Postgres
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
	if err != nil {
		return nil, noop, fmt.Errorf("open %s session store: %w", cfg.SessionBackend, err)
	}
	kv := kvstore.NewSQL(db, dialect)
	if err := kv.Migrate(ctx); err != nil {
		db.Close()
		return nil, noop, err
	}
	return kv, func() { _ = db.Close() }, nil
}
