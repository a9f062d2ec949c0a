// Package schema describes tables as ordered column lists and renders the DDL and bulk INSERT statements for them.
// Column order is fixed when a table is declared and is used both for CREATE TABLE and for row serialization.
package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
	"github.com/airbend/airbend-ingest/internal/schema/typedesc"
)

// Column declares one column of a table. Type is a type descriptor such as "VARCHAR", "NULLABLE(TIMESTAMP)" or
// "DECIMAL(10, 2) NULL". A column is nullable when its type resolves to a nullable type.
type Column struct {
	Name string
	Type string
}

// Col is shorthand for declaring a Column.
func Col(name, typ string) Column {
	return Column{Name: name, Type: typ}
}

// ResolvedColumn is a column whose type descriptor has been parsed and resolved.
type ResolvedColumn struct {
	Name     string
	DataType typedesc.DataType
}

// Nullable reports whether NULL may be stored in the column.
func (c ResolvedColumn) Nullable() bool {
	return c.DataType.IsNullable()
}

// Definition renders the column as it appears in CREATE TABLE.
func (c ResolvedColumn) Definition() string {
	if c.Nullable() {
		return c.Name + " " + c.DataType.String()
	}
	return c.Name + " " + c.DataType.String() + " NOT NULL"
}

// Table is an immutable table declaration.
type Table struct {
	name    string
	columns []ResolvedColumn
}

// NewTable resolves every column type. It fails on an empty name, a table with no columns, a duplicate column or a
// column whose type cannot be parsed or resolved.
func NewTable(name string, columns ...Column) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "name",
			Value:   name,
			Message: "table name must not be empty",
		})
	}
	if len(columns) == 0 {
		return nil, errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "columns",
			Value:   name,
			Message: "a table must have at least one column",
		})
	}
	resolved := make([]ResolvedColumn, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, errors.WithStack(&airbenderrors.ErrInvalidArgument{
				Name:    "columns",
				Value:   name,
				Message: "column name must not be empty",
			})
		}
		if seen[col.Name] {
			return nil, errors.WithStack(&airbenderrors.ErrInvalidArgument{
				Name:    "columns",
				Value:   col.Name,
				Message: fmt.Sprintf("duplicate column in table %s", name),
			})
		}
		seen[col.Name] = true
		dt, err := typedesc.ParseDataType(col.Type)
		if err != nil {
			return nil, errors.WithMessagef(err, "column %s.%s", name, col.Name)
		}
		resolved = append(resolved, ResolvedColumn{Name: col.Name, DataType: dt})
	}
	return &Table{name: name, columns: resolved}, nil
}

// MustNewTable is like NewTable but panics on error. It is intended for package-level table declarations.
func MustNewTable(name string, columns ...Column) *Table {
	t, err := NewTable(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string {
	return t.name
}

// Columns returns the resolved columns in declaration order.
func (t *Table) Columns() []ResolvedColumn {
	columns := make([]ResolvedColumn, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// CreateTableStatement renders an idempotent CREATE TABLE statement for the table in dialect d.
func (t *Table) CreateTableStatement(d Dialect) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.name)
	b.WriteString(" (")
	for i, col := range t.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.Definition())
	}
	b.WriteString(")")
	if d.TableOptions != "" {
		b.WriteString(" ")
		b.WriteString(d.TableOptions)
	}
	return b.String()
}
