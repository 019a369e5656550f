package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig is what every postgres repository is built from.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames are the environment-prefixed table names.
type TableNames struct {
	Analyses string
}

// NewTableNames applies prefix ("dev_", "prod_", ...) to every table.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Analyses: fmt.Sprintf("%sproof_analyses", prefix),
	}
}

// CreateConnectionPool opens a pool of at most maxConns connections and
// pings it. A pool that cannot be pinged is closed before returning.
//
// Port 6543 is a transaction pooler (PgBouncer) without prepared statement
// support, so unless the URL chose an exec mode the pool uses
// QueryExecModeCacheDescribe there.
func CreateConnectionPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	poolCfg.MinConns = 0

	conn := poolCfg.ConnConfig
	if conn.Port == 6543 && conn.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		conn.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open analysis archive: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach analysis archive: %w", err)
	}

	slog.Debug("analysis archive pool ready",
		"max_conns", poolCfg.MaxConns,
		"exec_mode", conn.DefaultQueryExecMode.String(),
	)
	return pool, nil
}
