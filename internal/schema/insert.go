package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
	"github.com/airbend/airbend-ingest/internal/common/util"
)

// Record is anything that can be written as a row of a table. Row must return one value per column, in the
// table's column order.
type Record interface {
	Row() []Value
}

type InsertOptions struct {
	Dialect Dialect
	// MaxRowsPerStatement splits large batches into several statements. Zero means one statement for all rows.
	MaxRowsPerStatement int
}

// InsertStatements renders the records as INSERT INTO ... VALUES statements, one tuple per record. Every record is
// validated before anything is rendered, so either all statements are returned or none are. No statements are
// returned for an empty batch.
func InsertStatements[R Record](t *Table, records []R, opts InsertOptions) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([][]Value, len(records))
	for i, record := range records {
		row := record.Row()
		if err := t.validateRow(row); err != nil {
			return nil, errors.WithMessagef(err, "record %d for table %s", i, t.name)
		}
		rows[i] = row
	}

	batches := util.Batch(rows, opts.MaxRowsPerStatement)
	statements := make([]string, 0, len(batches))
	for _, batch := range batches {
		statements = append(statements, t.insertStatement(batch, opts.Dialect))
	}
	return statements, nil
}

func (t *Table) insertStatement(rows [][]Value, d Dialect) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.name)
	b.WriteString(" VALUES ")
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Literal(d))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func (t *Table) validateRow(row []Value) error {
	if len(row) == 0 {
		return errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "row",
			Value:   "",
			Message: "record produced no values",
		})
	}
	if len(row) != len(t.columns) {
		return errors.WithStack(&airbenderrors.ErrInvalidArgument{
			Name:    "row",
			Value:   fmt.Sprintf("%d values", len(row)),
			Message: fmt.Sprintf("expected %d values", len(t.columns)),
		})
	}
	for i, v := range row {
		if v.IsNull() && !t.columns[i].Nullable() {
			return errors.WithStack(&airbenderrors.ErrInvalidArgument{
				Name:    t.columns[i].Name,
				Value:   "NULL",
				Message: "column is NOT NULL",
			})
		}
	}
	return nil
}
