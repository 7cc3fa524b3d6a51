package backend

import (
	"context"
	"strings"

	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/dialect"
	"github.com/unidb/unidb/value"
)

// Kind identifies one of the supported backends. The set is closed and
// known at build time.
type Kind int32

const (
	Invalid Kind = iota
	SQLite
	MySQL
	Postgres
)

func (k Kind) String() string {
	switch k {
	case SQLite:
		return "sqlite"
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return "invalid"
	}
}

// ParseKind resolves a backend name as used in configuration files and
// CLI flags.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	default:
		return Invalid, dberr.New(dberr.KindInterface, "unknown backend %q", s)
	}
}

// driverName is the database/sql driver the kind is served by.
func (k Kind) driverName() string {
	switch k {
	case SQLite:
		return "sqlite3"
	case MySQL:
		return "mysql"
	default:
		return "postgres"
	}
}

// Params carries backend connection parameters. Name is the database
// name, or the database filename for SQLite.
type Params struct {
	Name     string
	Host     string
	Port     uint16
	User     string
	Password string
	// SSLMode is honored by the Postgres backend only.
	SSLMode string
	// Engine pool bounds; a session still pins exactly one connection.
	MinConnections int
	MaxConnections int
}

func (p *Params) normalize(kind Kind) error {
	if p.Name == "" {
		return dberr.New(dberr.KindInterface, "%s: database name is required", kind)
	}
	if p.MinConnections == 0 {
		p.MinConnections = 1
	}
	if p.MaxConnections == 0 {
		p.MaxConnections = 32
	}
	if p.MinConnections < 0 || p.MaxConnections < 0 || p.MinConnections > p.MaxConnections {
		return dberr.New(dberr.KindInterface, "invalid connection bounds [%d, %d]", p.MinConnections, p.MaxConnections)
	}
	if p.Host == "" {
		p.Host = "localhost"
	}
	if p.Port == 0 {
		switch kind {
		case MySQL:
			p.Port = 3306
		case Postgres:
			p.Port = 5432
		}
	}
	if p.SSLMode == "" {
		p.SSLMode = "disable"
	}
	return nil
}

// Column describes one result column: its backend-reported name and the
// unified type its values convert into.
type Column struct {
	Name string
	Type value.Type
}

// Result is one statement's pending outcome: either a fetchable row
// stream or an affected-row count.
type Result interface {
	// Columns describes the result set, nil for statements without one.
	Columns() []Column
	// HasRows reports whether the statement produced a result set.
	HasRows() bool
	// RowsAffected is the affected-row count of a non-query statement,
	// -1 for result sets.
	RowsAffected() int64
	// LastInsertID is backend-dependent and 0 where unsupported.
	LastInsertID() int64
	// FetchBatch returns up to n unified rows, fewer near exhaustion and
	// an empty batch once exhausted.
	FetchBatch(ctx context.Context, n int) ([]value.Row, error)
	Close() error
}

// Adapter is the per-backend execution contract. An adapter owns one
// pinned backend session; it is not safe for concurrent use and relies
// on its Connection's session queue for serialization.
type Adapter interface {
	Kind() Kind
	Execute(ctx context.Context, stmt string, args []any) (Result, error)
	Begin(ctx context.Context, level dialect.Isolation) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Savepoint(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Ping(ctx context.Context) error
	Close() error
}

// Connect opens the backend engine and pins one session, returning the
// adapter speaking that backend's dialect.
func Connect(ctx context.Context, kind Kind, p Params) (Adapter, error) {
	if err := p.normalize(kind); err != nil {
		return nil, err
	}
	switch kind {
	case SQLite:
		return connectSQLite(ctx, p)
	case MySQL:
		return connectMySQL(ctx, p)
	case Postgres:
		return connectPostgres(ctx, p)
	default:
		return nil, dberr.New(dberr.KindNotSupported, "backend %d is not supported", kind)
	}
}

// stmtReturnsRows reports whether stmt produces a result set. The check
// is a metadata transform on the leading keyword plus the RETURNING
// clause; it never inspects parameter values.
func stmtReturnsRows(kind Kind, stmt string) bool {
	s := strings.TrimSpace(stmt)
	for strings.HasPrefix(s, "--") || strings.HasPrefix(s, "/*") {
		if strings.HasPrefix(s, "--") {
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return false
			}
			s = strings.TrimSpace(s[nl+1:])
			continue
		}
		end := strings.Index(s, "*/")
		if end < 0 {
			return false
		}
		s = strings.TrimSpace(s[end+2:])
	}
	word := s
	if i := strings.IndexAny(s, " \t\r\n("); i >= 0 {
		word = s[:i]
	}
	switch strings.ToUpper(word) {
	case "SELECT", "VALUES", "WITH", "SHOW", "PRAGMA", "EXPLAIN", "DESCRIBE", "DESC", "TABLE":
		return true
	}
	if kind == MySQL {
		// MySQL has no RETURNING clause.
		return false
	}
	return hasReturningClause(s)
}

// hasReturningClause scans for the RETURNING keyword outside string
// literals, quoted identifiers and comments.
func hasReturningClause(stmt string) bool {
	const keyword = "RETURNING"
	for i := 0; i < len(stmt); i++ {
		switch c := stmt[i]; c {
		case '\'', '"', '`':
			j := i + 1
			for j < len(stmt) {
				if stmt[j] == c {
					if j+1 < len(stmt) && stmt[j+1] == c {
						j += 2 // doubled quote stays inside the literal
						continue
					}
					break
				}
				j++
			}
			i = j
		case '-':
			if i+1 < len(stmt) && stmt[i+1] == '-' {
				nl := strings.IndexByte(stmt[i:], '\n')
				if nl < 0 {
					return false
				}
				i += nl
			}
		case '/':
			if i+1 < len(stmt) && stmt[i+1] == '*' {
				end := strings.Index(stmt[i+2:], "*/")
				if end < 0 {
					return false
				}
				i += end + 3
			}
		default:
			if len(stmt)-i >= len(keyword) &&
				strings.EqualFold(stmt[i:i+len(keyword)], keyword) &&
				(i == 0 || !isWordByte(stmt[i-1])) &&
				(i+len(keyword) == len(stmt) || !isWordByte(stmt[i+len(keyword)])) {
				return true
			}
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
