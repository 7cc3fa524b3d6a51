package dialect

import (
	"errors"
	"strings"

	"github.com/unidb/unidb/value"
)

// Isolation selects the transaction isolation level requested at begin
// time. Default leaves the backend's own default untouched.
type Isolation int

const (
	IsolationDefault Isolation = iota
	IsolationReadCommitted
	IsolationRepeatableRead
	IsolationSerializable
)

func (i Isolation) String() string {
	switch i {
	case IsolationReadCommitted:
		return "READ COMMITTED"
	case IsolationRepeatableRead:
		return "REPEATABLE READ"
	case IsolationSerializable:
		return "SERIALIZABLE"
	default:
		return "DEFAULT"
	}
}

// ErrIsolation is returned by BeginSQL when the backend cannot express
// the requested isolation level.
var ErrIsolation = errors.New("isolation level not supported by this backend")

// Dialect captures the per-backend SQL surface the adapters need. All
// methods are pure text or metadata transforms; statement parameters are
// never interpolated into statement text.
type Dialect interface {
	// Name is the database/sql driver name the dialect belongs to.
	Name() string
	// Quote wraps an identifier in backend-specific quotes.
	Quote(name string) string
	// BindVars rewrites the driver's canonical '?' placeholders into the
	// backend's native form and reports how many placeholders the
	// statement contains. Quoted literals and comments are left alone.
	BindVars(stmt string) (string, int)
	// BeginSQL returns the statements opening a transaction at the given
	// isolation level, in execution order.
	BeginSQL(level Isolation) ([]string, error)
	CommitSQL() string
	RollbackSQL() string
	SavepointSQL(name string) string
	ReleaseSQL(name string) string
	RollbackToSQL(name string) string
	// ColumnType maps a backend-reported column type name onto the
	// unified type. Unreported types map to value.TypeUnknown and are
	// inferred per row.
	ColumnType(databaseTypeName string) value.Type
}

var dialects = make(map[string]Dialect)

// Register registers a dialect under its driver name.
func Register(name string, d Dialect) {
	dialects[name] = d
}

// Get retrieves a registered dialect by driver name.
func Get(name string) (Dialect, bool) {
	d, ok := dialects[name]
	return d, ok
}

// rewrite walks stmt once, counting '?' placeholders outside string
// literals, quoted identifiers and comments, and replacing the n-th one
// with repl(n). backslashEscapes enables MySQL-style backslash escapes
// inside quoted strings.
func rewrite(stmt string, backslashEscapes bool, repl func(n int) string) (string, int) {
	var b strings.Builder
	b.Grow(len(stmt) + 8)
	n := 0
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		switch c {
		case '\'', '"', '`':
			j := i + 1
			for j < len(stmt) {
				if backslashEscapes && stmt[j] == '\\' && j+1 < len(stmt) {
					j += 2
					continue
				}
				if stmt[j] == c {
					if j+1 < len(stmt) && stmt[j+1] == c {
						j += 2 // doubled quote stays inside the literal
						continue
					}
					j++
					break
				}
				j++
			}
			b.WriteString(stmt[i:j])
			i = j - 1
		case '-':
			if i+1 < len(stmt) && stmt[i+1] == '-' {
				end := strings.IndexByte(stmt[i:], '\n')
				if end < 0 {
					b.WriteString(stmt[i:])
					return b.String(), n
				}
				b.WriteString(stmt[i : i+end])
				i += end - 1
				continue
			}
			b.WriteByte(c)
		case '/':
			if i+1 < len(stmt) && stmt[i+1] == '*' {
				end := strings.Index(stmt[i+2:], "*/")
				if end < 0 {
					b.WriteString(stmt[i:])
					return b.String(), n
				}
				b.WriteString(stmt[i : i+end+4])
				i += end + 3
				continue
			}
			b.WriteByte(c)
		case '?':
			n++
			b.WriteString(repl(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), n
}

func keep(int) string { return "?" }
