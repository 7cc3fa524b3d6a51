package pool

import (
	"context"
	"database/sql"
	"time"
)

// Pool abstracts the engine connection pool that backs every session.
// A session is a single pinned connection: one backend wire session that
// never multiplexes statements.
type Pool interface {
	Close() error
	Ping(ctx context.Context) error
	// Session pins one dedicated connection out of the pool.
	Session(ctx context.Context) (*sql.Conn, error)
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
}

// StdPool implements Pool on the standard library's *sql.DB.
type StdPool struct {
	*sql.DB
}

// NewStdPool wraps the given *sql.DB.
func NewStdPool(db *sql.DB) *StdPool {
	return &StdPool{db}
}

func (p *StdPool) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

func (p *StdPool) Session(ctx context.Context) (*sql.Conn, error) {
	return p.DB.Conn(ctx)
}
