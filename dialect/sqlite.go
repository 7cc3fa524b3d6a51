package dialect

import (
	"fmt"
	"strings"

	"github.com/unidb/unidb/value"
)

type sqlite3 struct{}

func init() {
	Register("sqlite3", &sqlite3{})
}

func (d *sqlite3) Name() string { return "sqlite3" }

func (d *sqlite3) Quote(name string) string {
	return fmt.Sprintf(`"%s"`, name)
}

func (d *sqlite3) BindVars(stmt string) (string, int) {
	return rewrite(stmt, false, keep)
}

func (d *sqlite3) BeginSQL(level Isolation) ([]string, error) {
	// SQLite knows deferred/immediate/exclusive transactions, not the
	// SQL standard isolation levels.
	if level != IsolationDefault {
		return nil, ErrIsolation
	}
	return []string{"BEGIN"}, nil
}

func (d *sqlite3) CommitSQL() string   { return "COMMIT" }
func (d *sqlite3) RollbackSQL() string { return "ROLLBACK" }

func (d *sqlite3) SavepointSQL(name string) string {
	return "SAVEPOINT " + d.Quote(name)
}

func (d *sqlite3) ReleaseSQL(name string) string {
	return "RELEASE SAVEPOINT " + d.Quote(name)
}

func (d *sqlite3) RollbackToSQL(name string) string {
	return "ROLLBACK TO SAVEPOINT " + d.Quote(name)
}

// ColumnType maps SQLite declared types onto unified types. SQLite
// columns carry type affinity, not strict types, so the declared name is
// matched by its affinity keywords. Expressions have no declared type at
// all and come back as TypeUnknown.
func (d *sqlite3) ColumnType(databaseTypeName string) value.Type {
	name := strings.ToUpper(databaseTypeName)
	switch {
	case name == "":
		return value.TypeUnknown
	case name == "BOOLEAN" || name == "BOOL":
		return value.TypeBool
	case name == "DATE":
		return value.TypeDate
	case name == "TIME":
		return value.TypeTime
	case name == "DATETIME" || name == "TIMESTAMP":
		return value.TypeTimestamp
	case strings.Contains(name, "INT"):
		return value.TypeInt
	case strings.Contains(name, "CHAR"), strings.Contains(name, "CLOB"), strings.Contains(name, "TEXT"):
		return value.TypeText
	case strings.Contains(name, "BLOB"):
		return value.TypeBinary
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"):
		return value.TypeFloat
	case strings.Contains(name, "DEC"), strings.Contains(name, "NUMERIC"):
		// NUMERIC affinity stores as float; decimal precision beyond
		// 2^53 is lossy on this backend.
		return value.TypeDecimal
	default:
		return value.TypeUnknown
	}
}
