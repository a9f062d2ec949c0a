package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/schema"
)

// SQLExecutor adapts a database/sql handle to Executor.
type SQLExecutor struct {
	db      *sql.DB
	dialect schema.Dialect
}

// OpenSQL opens a database/sql handle with the given driver and pings it.
func OpenSQL(ctx context.Context, driverName, dataSource string, dialect schema.Dialect) (*SQLExecutor, error) {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, errors.WithMessagef(err, "could not open %s connection", driverName)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WithMessagef(err, "failed to ping %s", driverName)
	}
	return NewSQLExecutor(db, dialect), nil
}

func NewSQLExecutor(db *sql.DB, dialect schema.Dialect) *SQLExecutor {
	return &SQLExecutor{db: db, dialect: dialect}
}

func (e *SQLExecutor) Exec(ctx context.Context, statement string) error {
	if _, err := e.db.ExecContext(ctx, statement); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (e *SQLExecutor) Dialect() schema.Dialect {
	return e.dialect
}

// DB exposes the underlying handle, mainly so tests can query what was written.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}

func (e *SQLExecutor) Close() error {
	return e.db.Close()
}
