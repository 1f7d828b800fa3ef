package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxPoolConns    = 10
	connPingTimeout = 5 * time.Second
)

// DB is the connection pool shared by all repositories. It embeds the pgx
// pool so it satisfies the repository query interface directly.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool against the given URL and verifies it with a
// bounded ping before handing it out.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = maxPoolConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
}
