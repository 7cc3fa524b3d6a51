package backend

import (
	"context"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/unidb/unidb/dberr"
)

// connectSQLite opens a SQLite database file. Params.Name is the
// filename; ":memory:" and "file:" URIs pass through untouched.
func connectSQLite(ctx context.Context, p Params) (Adapter, error) {
	dsn := p.Name
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" && !strings.Contains(dsn, "?") {
		// Referential integrity is opt-in per connection on SQLite.
		dsn += "?_foreign_keys=on"
	}
	return open(ctx, SQLite, dsn, p, dberr.ClassifySQLite)
}
