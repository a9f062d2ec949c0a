package schema

// Dialect captures the differences between SQL stores that matter when rendering statements.
type Dialect struct {
	Name string
	// BackslashEscapes is set for stores that treat a backslash inside a string literal as an escape character.
	BackslashEscapes bool
	// TableOptions is appended to CREATE TABLE, e.g. the table engine.
	TableOptions string
}

// ClickHouse rejects a CREATE TABLE without an engine. Rows are only ever appended, so no sorting key is set.
const clickHouseEngine = "ENGINE = MergeTree() ORDER BY tuple()"

var (
	DialectDatabend   = Dialect{Name: "databend", BackslashEscapes: true}
	DialectClickHouse = Dialect{Name: "clickhouse", BackslashEscapes: true, TableOptions: clickHouseEngine}
	DialectPostgres   = Dialect{Name: "postgres"}
	DialectSQLite     = Dialect{Name: "sqlite"}
	DialectDuckDB     = Dialect{Name: "duckdb"}
)

func (d Dialect) String() string {
	return d.Name
}
