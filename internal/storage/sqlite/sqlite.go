// Package sqlite registers an embedded SQLite backend for the sqlite DSN scheme, e.g. sqlite:///tmp/airbend.db or
// sqlite://:memory:.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/airbend/airbend-ingest/internal/schema"
	"github.com/airbend/airbend-ingest/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, dsn string) (storage.Executor, error) {
		return Open(ctx, dsn)
	})
}

// Open opens the database named by the part of dsn after the scheme. An empty path opens an in-memory database.
func Open(ctx context.Context, dsn string) (*storage.SQLExecutor, error) {
	path := storage.StripScheme(dsn)
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WithMessage(err, "could not open sqlite database")
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WithMessagef(err, "failed to open sqlite database %s", path)
	}
	return storage.NewSQLExecutor(db, schema.DialectSQLite), nil
}
