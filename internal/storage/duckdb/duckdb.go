// Package duckdb registers an embedded DuckDB backend for the duckdb DSN scheme, e.g. duckdb:///tmp/airbend.duckdb.
// duckdb:// with no path opens an in-memory database.
package duckdb

import (
	"context"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/airbend/airbend-ingest/internal/schema"
	"github.com/airbend/airbend-ingest/internal/storage"
)

func init() {
	storage.Register("duckdb", Open)
}

func Open(ctx context.Context, dsn string) (storage.Executor, error) {
	return storage.OpenSQL(ctx, "duckdb", storage.StripScheme(dsn), schema.DialectDuckDB)
}
