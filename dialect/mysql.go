package dialect

import (
	"fmt"
	"strings"

	"github.com/unidb/unidb/value"
)

// MySQL dialect implementation
type mysql struct{}

func init() {
	Register("mysql", &mysql{})
}

func (d *mysql) Name() string { return "mysql" }

func (d *mysql) Quote(name string) string {
	return fmt.Sprintf("`%s`", name)
}

func (d *mysql) BindVars(stmt string) (string, int) {
	return rewrite(stmt, true, keep)
}

func (d *mysql) BeginSQL(level Isolation) ([]string, error) {
	if level == IsolationDefault {
		return []string{"START TRANSACTION"}, nil
	}
	// SET TRANSACTION applies to the next transaction only.
	return []string{
		"SET TRANSACTION ISOLATION LEVEL " + level.String(),
		"START TRANSACTION",
	}, nil
}

func (d *mysql) CommitSQL() string   { return "COMMIT" }
func (d *mysql) RollbackSQL() string { return "ROLLBACK" }

func (d *mysql) SavepointSQL(name string) string {
	return "SAVEPOINT " + d.Quote(name)
}

func (d *mysql) ReleaseSQL(name string) string {
	return "RELEASE SAVEPOINT " + d.Quote(name)
}

func (d *mysql) RollbackToSQL(name string) string {
	return "ROLLBACK TO SAVEPOINT " + d.Quote(name)
}

func (d *mysql) ColumnType(databaseTypeName string) value.Type {
	name := strings.ToUpper(databaseTypeName)
	switch name {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT", "YEAR":
		// The driver reports every tinyint column as TINYINT, including
		// the BOOLEAN alias tinyint(1), so values stay integers; 0/1
		// still converts cleanly where the caller wants a bool.
		return value.TypeInt
	case "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		return value.TypeInt
	case "FLOAT", "DOUBLE":
		return value.TypeFloat
	case "DECIMAL":
		return value.TypeDecimal
	case "CHAR", "VARCHAR", "TINYTEXT", "TEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET", "JSON":
		return value.TypeText
	case "BINARY", "VARBINARY", "TINYBLOB", "BLOB", "MEDIUMBLOB", "LONGBLOB", "BIT", "GEOMETRY":
		return value.TypeBinary
	case "DATE":
		return value.TypeDate
	case "TIME":
		return value.TypeTime
	case "DATETIME", "TIMESTAMP":
		return value.TypeTimestamp
	default:
		return value.TypeUnknown
	}
}
