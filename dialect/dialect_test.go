package dialect

import (
	"errors"
	"testing"

	"github.com/unidb/unidb/value"
)

func mustGet(t *testing.T, name string) Dialect {
	t.Helper()
	d, ok := Get(name)
	if !ok {
		t.Fatalf("dialect %q not registered", name)
	}
	return d
}

func TestBindVarsPostgres(t *testing.T) {
	d := mustGet(t, "postgres")

	tests := []struct {
		in    string
		want  string
		count int
	}{
		{"SELECT 1", "SELECT 1", 0},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2", 2},
		{"INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)", 3},
		// placeholders inside literals and identifiers stay untouched
		{"SELECT '?' , ? FROM t", "SELECT '?' , $1 FROM t", 1},
		{`SELECT "a?b" FROM t WHERE c = ?`, `SELECT "a?b" FROM t WHERE c = $1`, 1},
		{"SELECT 'it''s ?' , ?", "SELECT 'it''s ?' , $1", 1},
		// comments are skipped
		{"SELECT ? -- trailing ? comment", "SELECT $1 -- trailing ? comment", 1},
		{"SELECT ? -- no newline ?", "SELECT $1 -- no newline ?", 1},
		{"SELECT /* block ? */ ?", "SELECT /* block ? */ $1", 1},
		{"SELECT ? /* unterminated ?", "SELECT $1 /* unterminated ?", 1},
	}
	for _, tt := range tests {
		got, n := d.BindVars(tt.in)
		if got != tt.want || n != tt.count {
			t.Errorf("BindVars(%q) = %q, %d; want %q, %d", tt.in, got, n, tt.want, tt.count)
		}
	}
}

func TestBindVarsMySQLBackslashEscapes(t *testing.T) {
	d := mustGet(t, "mysql")

	in := `SELECT 'a\'?' , ? FROM t`
	got, n := d.BindVars(in)
	if got != in || n != 1 {
		t.Errorf("BindVars(%q) = %q, %d; want unchanged, 1", in, got, n)
	}

	got, n = d.BindVars("SELECT `a?b` , ?")
	if got != "SELECT `a?b` , ?" || n != 1 {
		t.Errorf("backquoted identifier: got %q, %d", got, n)
	}
}

func TestBindVarsSQLiteKeepsPlaceholders(t *testing.T) {
	d := mustGet(t, "sqlite3")

	in := "UPDATE t SET a = ? WHERE b = ?"
	got, n := d.BindVars(in)
	if got != in || n != 2 {
		t.Errorf("BindVars(%q) = %q, %d; want unchanged, 2", in, got, n)
	}
}

func TestBeginSQL(t *testing.T) {
	pg := mustGet(t, "postgres")
	stmts, err := pg.BeginSQL(IsolationSerializable)
	if err != nil {
		t.Fatalf("postgres BeginSQL: %v", err)
	}
	if len(stmts) != 1 || stmts[0] != "BEGIN ISOLATION LEVEL SERIALIZABLE" {
		t.Errorf("postgres BeginSQL = %v", stmts)
	}

	my := mustGet(t, "mysql")
	stmts, err = my.BeginSQL(IsolationRepeatableRead)
	if err != nil {
		t.Fatalf("mysql BeginSQL: %v", err)
	}
	if len(stmts) != 2 ||
		stmts[0] != "SET TRANSACTION ISOLATION LEVEL REPEATABLE READ" ||
		stmts[1] != "START TRANSACTION" {
		t.Errorf("mysql BeginSQL = %v", stmts)
	}

	lite := mustGet(t, "sqlite3")
	if _, err := lite.BeginSQL(IsolationSerializable); !errors.Is(err, ErrIsolation) {
		t.Errorf("sqlite BeginSQL(serializable) err = %v; want ErrIsolation", err)
	}
	stmts, err = lite.BeginSQL(IsolationDefault)
	if err != nil || len(stmts) != 1 || stmts[0] != "BEGIN" {
		t.Errorf("sqlite BeginSQL(default) = %v, %v", stmts, err)
	}
}

func TestSavepointSQL(t *testing.T) {
	pg := mustGet(t, "postgres")
	if got := pg.SavepointSQL("sp_1"); got != `SAVEPOINT "sp_1"` {
		t.Errorf("SavepointSQL = %q", got)
	}
	if got := pg.RollbackToSQL("sp_1"); got != `ROLLBACK TO SAVEPOINT "sp_1"` {
		t.Errorf("RollbackToSQL = %q", got)
	}
	my := mustGet(t, "mysql")
	if got := my.ReleaseSQL("sp_1"); got != "RELEASE SAVEPOINT `sp_1`" {
		t.Errorf("mysql ReleaseSQL = %q", got)
	}
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		dialect string
		dbType  string
		want    value.Type
	}{
		{"sqlite3", "INTEGER", value.TypeInt},
		{"sqlite3", "VARCHAR(32)", value.TypeText},
		{"sqlite3", "BLOB", value.TypeBinary},
		{"sqlite3", "DOUBLE", value.TypeFloat},
		{"sqlite3", "NUMERIC(10,2)", value.TypeDecimal},
		{"sqlite3", "BOOLEAN", value.TypeBool},
		{"sqlite3", "DATETIME", value.TypeTimestamp},
		{"sqlite3", "", value.TypeUnknown},
		{"mysql", "TINYINT", value.TypeInt},
		{"mysql", "BIGINT", value.TypeInt},
		{"mysql", "DECIMAL", value.TypeDecimal},
		{"mysql", "DATETIME", value.TypeTimestamp},
		{"postgres", "INT8", value.TypeInt},
		{"postgres", "NUMERIC", value.TypeDecimal},
		{"postgres", "BYTEA", value.TypeBinary},
		{"postgres", "TIMESTAMPTZ", value.TypeTimestamp},
		{"postgres", "WEIRD", value.TypeUnknown},
	}
	for _, tt := range tests {
		d := mustGet(t, tt.dialect)
		if got := d.ColumnType(tt.dbType); got != tt.want {
			t.Errorf("%s ColumnType(%q) = %v; want %v", tt.dialect, tt.dbType, got, tt.want)
		}
	}
}

func TestMySQLTinyintKeepsValue(t *testing.T) {
	// TINYINT covers the whole -128..127 range; mapping it through the
	// column type must not collapse a 5 into true.
	d := mustGet(t, "mysql")
	v, err := value.Convert(int64(5), d.ColumnType("TINYINT"))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(value.Int(5)) {
		t.Errorf("tinyint 5 converted to %v; want Int(5)", v)
	}
}
