// Package storage executes rendered SQL statements against an analytical store. Backends register themselves by
// DSN scheme from their own packages; import the backend packages for their side effects to make them available.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
	"github.com/airbend/airbend-ingest/internal/schema"
)

// Executor runs statements against a store. Implementations must be safe for concurrent use.
type Executor interface {
	// Exec runs a single statement. Errors from the store are returned as-is, wrapped with context.
	Exec(ctx context.Context, statement string) error
	// Dialect is the SQL dialect statements for this store should be rendered in.
	Dialect() schema.Dialect
	Close() error
}

// Factory opens an Executor for a DSN. Implementations should verify connectivity before returning.
type Factory func(ctx context.Context, dsn string) (Executor, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under a DSN scheme. It panics if scheme is empty, f is nil or the scheme is
// already registered.
func Register(scheme string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if scheme == "" {
		panic("storage: Register called with empty scheme")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	scheme = strings.ToLower(scheme)
	if _, exists := factories[scheme]; exists {
		panic(fmt.Sprintf("storage: factory already registered for scheme %q", scheme))
	}
	factories[scheme] = f
}

// Schemes returns the registered DSN schemes in sorted order.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	schemes := maps.Keys(factories)
	sort.Strings(schemes)
	return schemes
}

// Open selects the backend registered for the scheme of dsn and opens it.
func Open(ctx context.Context, dsn string) (Executor, error) {
	scheme, err := Scheme(dsn)
	if err != nil {
		return nil, err
	}

	mu.RLock()
	f := factories[scheme]
	mu.RUnlock()

	if f == nil {
		return nil, errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "connectionString",
			Value:   scheme,
			Message: fmt.Sprintf("unsupported storage scheme; registered schemes are %s", strings.Join(Schemes(), ", ")),
		})
	}
	exec, err := f(ctx, dsn)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening %s storage", scheme)
	}
	return exec, nil
}

// Scheme returns the lower-cased scheme of a DSN of the form scheme://...
func Scheme(dsn string) (string, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok || scheme == "" || strings.ContainsAny(scheme, "/?@") {
		return "", errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "connectionString",
			Value:   redact(dsn),
			Message: "expected a DSN of the form scheme://...",
		})
	}
	return strings.ToLower(scheme), nil
}

// StripScheme returns everything after the scheme separator of dsn.
func StripScheme(dsn string) string {
	_, rest, _ := strings.Cut(dsn, "://")
	return rest
}

// redact hides credentials in a DSN so that it can be logged or returned in errors.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	if scheme, _, ok := strings.Cut(dsn, "://"); ok && !strings.Contains(scheme, "@") {
		return scheme + "://***@" + dsn[at+1:]
	}
	return "***@" + dsn[at+1:]
}
