package dialect

import (
	"fmt"
	"strings"

	"github.com/unidb/unidb/value"
)

// PostgreSQL dialect implementation
type postgres struct{}

func init() {
	Register("postgres", &postgres{})
}

func (d *postgres) Name() string { return "postgres" }

func (d *postgres) Quote(name string) string {
	// PostgreSQL uses double quotes for identifiers
	return fmt.Sprintf(`"%s"`, name)
}

// BindVars rewrites '?' into the numbered $1, $2, ... form PostgreSQL
// requires.
func (d *postgres) BindVars(stmt string) (string, int) {
	return rewrite(stmt, false, func(n int) string {
		return fmt.Sprintf("$%d", n)
	})
}

func (d *postgres) BeginSQL(level Isolation) ([]string, error) {
	if level == IsolationDefault {
		return []string{"BEGIN"}, nil
	}
	return []string{"BEGIN ISOLATION LEVEL " + level.String()}, nil
}

func (d *postgres) CommitSQL() string   { return "COMMIT" }
func (d *postgres) RollbackSQL() string { return "ROLLBACK" }

func (d *postgres) SavepointSQL(name string) string {
	return "SAVEPOINT " + d.Quote(name)
}

func (d *postgres) ReleaseSQL(name string) string {
	return "RELEASE SAVEPOINT " + d.Quote(name)
}

func (d *postgres) RollbackToSQL(name string) string {
	return "ROLLBACK TO SAVEPOINT " + d.Quote(name)
}

func (d *postgres) ColumnType(databaseTypeName string) value.Type {
	name := strings.ToUpper(databaseTypeName)
	switch name {
	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT", "OID":
		return value.TypeInt
	case "FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION":
		return value.TypeFloat
	case "NUMERIC", "DECIMAL", "MONEY":
		return value.TypeDecimal
	case "TEXT", "VARCHAR", "BPCHAR", "CHAR", "NAME", "UUID", "JSON", "JSONB", "XML", "CITEXT":
		return value.TypeText
	case "BYTEA":
		return value.TypeBinary
	case "BOOL", "BOOLEAN":
		return value.TypeBool
	case "DATE":
		return value.TypeDate
	case "TIME", "TIMETZ":
		return value.TypeTime
	case "TIMESTAMP", "TIMESTAMPTZ":
		return value.TypeTimestamp
	default:
		return value.TypeUnknown
	}
}
