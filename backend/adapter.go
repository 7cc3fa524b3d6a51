package backend

import (
	"context"
	"database/sql"

	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/dialect"
	"github.com/unidb/unidb/pool"
)

// sqlAdapter is the shared adapter core over database/sql. The three
// variants differ only in DSN construction, dialect and classifier.
type sqlAdapter struct {
	kind     Kind
	pool     pool.Pool
	conn     *sql.Conn
	dialect  dialect.Dialect
	classify func(error) error
}

func open(ctx context.Context, kind Kind, dsn string, p Params, classify func(error) error) (*sqlAdapter, error) {
	dia, ok := dialect.Get(kind.driverName())
	if !ok {
		return nil, dberr.New(dberr.KindNotSupported, "no dialect registered for %s", kind)
	}
	db, err := sql.Open(kind.driverName(), dsn)
	if err != nil {
		return nil, classify(err)
	}
	eng := pool.NewStdPool(db)
	eng.SetMaxOpenConns(p.MaxConnections)
	eng.SetMaxIdleConns(p.MinConnections)

	conn, err := eng.Session(ctx)
	if err != nil {
		eng.Close()
		return nil, classify(err)
	}
	a := &sqlAdapter{
		kind:     kind,
		pool:     eng,
		conn:     conn,
		dialect:  dia,
		classify: classify,
	}
	if err := a.Ping(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *sqlAdapter) Kind() Kind { return a.kind }

// watch cancels the query-scoped context when the operation context
// settles first, so per-operation timeouts reach the wire without tying
// the result stream's lifetime to the operation that produced it.
func watch(ctx context.Context, cancel context.CancelFunc) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (a *sqlAdapter) Execute(ctx context.Context, stmt string, args []any) (Result, error) {
	native, n := a.dialect.BindVars(stmt)
	if n != len(args) {
		return nil, dberr.New(dberr.KindProgramming,
			"statement has %d placeholders but %d parameters were bound", n, len(args))
	}

	if !stmtReturnsRows(a.kind, stmt) {
		res, err := a.conn.ExecContext(ctx, native, args...)
		if err != nil {
			return nil, a.execErr(ctx, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = 0
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			lastID = 0 // Postgres reports none
		}
		return NewAffectedResult(affected, lastID), nil
	}

	// The result stream must outlive this operation, so the driver call
	// runs on a result-scoped context that a watchdog cancels if the
	// operation context settles first.
	qctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := watch(ctx, cancel)
	rows, err := a.conn.QueryContext(qctx, native, args...)
	stop()
	if err != nil {
		cancel()
		return nil, a.execErr(ctx, err)
	}
	cols, err := a.describe(rows)
	if err != nil {
		rows.Close()
		cancel()
		return nil, a.classify(err)
	}
	return &streamResult{
		rows:     rows,
		cols:     cols,
		cancel:   cancel,
		classify: a.classify,
		backend:  a.kind,
	}, nil
}

// execErr prefers the operation context's verdict over the driver's
// rendering of an interrupted call.
func (a *sqlAdapter) execErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return a.classify(ctx.Err())
	}
	return a.classify(err)
}

func (a *sqlAdapter) describe(rows *sql.Rows) ([]Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, ct := range types {
		cols[i] = Column{
			Name: ct.Name(),
			Type: a.dialect.ColumnType(ct.DatabaseTypeName()),
		}
	}
	return cols, nil
}

func (a *sqlAdapter) exec(ctx context.Context, stmts ...string) error {
	for _, s := range stmts {
		if _, err := a.conn.ExecContext(ctx, s); err != nil {
			return a.execErr(ctx, err)
		}
	}
	return nil
}

func (a *sqlAdapter) Begin(ctx context.Context, level dialect.Isolation) error {
	stmts, err := a.dialect.BeginSQL(level)
	if err != nil {
		return dberr.Wrap(dberr.KindNotSupported, err, "%s: isolation level %s", a.kind, level)
	}
	return a.exec(ctx, stmts...)
}

func (a *sqlAdapter) Commit(ctx context.Context) error {
	return a.exec(ctx, a.dialect.CommitSQL())
}

func (a *sqlAdapter) Rollback(ctx context.Context) error {
	return a.exec(ctx, a.dialect.RollbackSQL())
}

func (a *sqlAdapter) Savepoint(ctx context.Context, name string) error {
	return a.exec(ctx, a.dialect.SavepointSQL(name))
}

func (a *sqlAdapter) Release(ctx context.Context, name string) error {
	return a.exec(ctx, a.dialect.ReleaseSQL(name))
}

func (a *sqlAdapter) RollbackTo(ctx context.Context, name string) error {
	return a.exec(ctx, a.dialect.RollbackToSQL(name))
}

func (a *sqlAdapter) Ping(ctx context.Context) error {
	if err := a.conn.PingContext(ctx); err != nil {
		return a.execErr(ctx, err)
	}
	return nil
}

func (a *sqlAdapter) Close() error {
	var first error
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && err != sql.ErrConnDone {
			first = err
		}
		a.conn = nil
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil && first == nil {
			first = err
		}
		a.pool = nil
	}
	if first != nil {
		return a.classify(first)
	}
	return nil
}
