// Package postgres registers the PostgreSQL backend for the postgres and postgresql DSN schemes.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/schema"
	"github.com/airbend/airbend-ingest/internal/storage"
)

func init() {
	storage.Register("postgres", Open)
	storage.Register("postgresql", Open)
}

type Executor struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (storage.Executor, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "could not create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WithMessage(err, "failed to ping postgres")
	}
	return &Executor{pool: pool}, nil
}

func (e *Executor) Exec(ctx context.Context, statement string) error {
	if _, err := e.pool.Exec(ctx, statement); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (e *Executor) Dialect() schema.Dialect {
	return schema.DialectPostgres
}

func (e *Executor) Close() error {
	e.pool.Close()
	return nil
}
