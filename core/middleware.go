package core

import (
	"context"

	"github.com/unidb/unidb/backend"
)

// Statement is the unit the middleware chain intercepts: one statement
// text with its already-bound parameters.
type Statement struct {
	Text    string
	Args    []any
	Backend backend.Kind
}

// ExecFunc is the next step in the middleware chain.
type ExecFunc func(ctx context.Context, stmt *Statement) (backend.Result, error)

// Component is the base interface for pluggable pieces attached to a
// Connection.
type Component interface {
	Name() string
	Init(conn *Connection) error
	Shutdown() error
}

// Middleware intercepts statement execution. Implementations must call
// next at most once and may replace the returned result, e.g. with a
// cached one.
type Middleware interface {
	Component
	Process(ctx context.Context, stmt *Statement, next ExecFunc) (backend.Result, error)
}

// chain folds the registered middlewares around the adapter call.
func (c *Connection) chain(final ExecFunc) ExecFunc {
	next := final
	for i := len(c.opts.Middlewares) - 1; i >= 0; i-- {
		mw := c.opts.Middlewares[i]
		inner := next
		next = func(ctx context.Context, stmt *Statement) (backend.Result, error) {
			return mw.Process(ctx, stmt, inner)
		}
	}
	return next
}
