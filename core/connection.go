package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/logger"
)

// TxState is the transaction state of a Connection.
type TxState int

const (
	TxIdle TxState = iota
	TxInTransaction
)

func (s TxState) String() string {
	if s == TxInTransaction {
		return "in transaction"
	}
	return "idle"
}

// Connection is one open session to one backend. It owns exactly one
// backend adapter, the current transaction state and the cursors opened
// on it. All operations funnel through the connection's private session
// queue, so a Connection never executes two statements concurrently;
// independent Connections are fully independent.
type Connection struct {
	kind    backend.Kind
	adapter backend.Adapter
	opts    Options
	sess    *session
	log     logger.Logger

	// The fields below are mutated only from inside session operations.
	state      TxState
	savepoints []string
	spSeq      int
	closed     bool
	cursors    map[*Cursor]struct{}

	closeOnce sync.Once
	closeErr  error
}

// Connect opens a session to the given backend. opts may be nil for the
// defaults: autocommit off, no per-operation timeout, backend-default
// isolation.
func Connect(ctx context.Context, kind backend.Kind, params backend.Params, opts *Options) (*Connection, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()

	cctx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	adapter, err := backend.Connect(cctx, kind, params)
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		kind:    kind,
		adapter: adapter,
		opts:    o,
		sess:    newSession(),
		log:     o.Logger.WithFields(map[string]any{"backend": kind.String()}),
		cursors: make(map[*Cursor]struct{}),
	}
	for _, mw := range o.Middlewares {
		if err := mw.Init(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("middleware %s: %w", mw.Name(), err)
		}
	}
	conn.log.Info("connected to %s database %q", kind, params.Name)
	return conn, nil
}

// Kind returns the backend this connection speaks to.
func (c *Connection) Kind() backend.Kind { return c.kind }

// Logger exposes the connection's logger to middlewares.
func (c *Connection) Logger() logger.Logger { return c.log }

// State reports the current transaction state.
func (c *Connection) State() TxState {
	st, err := runOp(c.sess, context.Background(), 0, func(context.Context) (TxState, error) {
		return c.state, nil
	})
	if err != nil {
		return TxIdle
	}
	return st
}

// Cursor opens a new cursor on this connection.
func (c *Connection) Cursor() (*Cursor, error) {
	cur := &Cursor{conn: c, pos: -1, rowcount: -1}
	_, err := runOp(c.sess, context.Background(), 0, func(context.Context) (struct{}, error) {
		if err := c.checkOpen(); err != nil {
			return struct{}{}, err
		}
		c.cursors[cur] = struct{}{}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// Begin opens an explicit transaction. On a connection already in a
// transaction it degrades to a savepoint, since every supported backend
// implements savepoints.
func (c *Connection) Begin(ctx context.Context) error {
	_, err := c.BeginAsync(ctx).Wait()
	return err
}

// BeginAsync is the asynchronous equivalent of Begin.
func (c *Connection) BeginAsync(ctx context.Context) *Operation[struct{}] {
	return startOp(c.sess, ctx, c.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		return struct{}{}, c.beginLocked(opCtx)
	})
}

// Commit commits the innermost transaction scope: the newest savepoint
// if one is pending, otherwise the transaction itself. In idle state it
// is a no-op.
func (c *Connection) Commit(ctx context.Context) error {
	_, err := c.CommitAsync(ctx).Wait()
	return err
}

// CommitAsync is the asynchronous equivalent of Commit.
func (c *Connection) CommitAsync(ctx context.Context) *Operation[struct{}] {
	return startOp(c.sess, ctx, c.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		return struct{}{}, c.commitLocked(opCtx)
	})
}

// Rollback rolls back the innermost transaction scope. In idle state it
// is a no-op.
func (c *Connection) Rollback(ctx context.Context) error {
	_, err := c.RollbackAsync(ctx).Wait()
	return err
}

// RollbackAsync is the asynchronous equivalent of Rollback.
func (c *Connection) RollbackAsync(ctx context.Context) *Operation[struct{}] {
	return startOp(c.sess, ctx, c.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		return struct{}{}, c.rollbackLocked(opCtx)
	})
}

// Ping verifies the session is alive.
func (c *Connection) Ping(ctx context.Context) error {
	_, err := runOp(c.sess, ctx, c.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		if err := c.checkOpen(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.adapter.Ping(opCtx)
	})
	return err
}

// Close invalidates every open cursor, rolls back a pending transaction
// (it never commits partial work) and releases the session. Close is
// idempotent; any other operation on a closed connection fails with an
// interface error.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		_, c.closeErr = runOp(c.sess, context.Background(), 0, func(opCtx context.Context) (struct{}, error) {
			return struct{}{}, c.closeLocked(opCtx)
		})
		c.sess.shutdown()
	})
	return c.closeErr
}

func (c *Connection) checkOpen() error {
	if c.closed {
		return dberr.New(dberr.KindInterface, "connection is closed")
	}
	return nil
}

func (c *Connection) beginLocked(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.state == TxInTransaction {
		c.spSeq++
		name := fmt.Sprintf("unidb_sp_%d", c.spSeq)
		start := time.Now()
		if err := c.adapter.Savepoint(ctx, name); err != nil {
			return c.noteErr(err)
		}
		c.logSQL("SAVEPOINT "+name, time.Since(start))
		c.savepoints = append(c.savepoints, name)
		return nil
	}
	start := time.Now()
	if err := c.adapter.Begin(ctx, c.opts.Isolation); err != nil {
		return c.noteErr(err)
	}
	c.logSQL("BEGIN", time.Since(start))
	c.state = TxInTransaction
	return nil
}

// ensureTx opens the implicit transaction demanded by autocommit-off
// mode before the first statement of an idle connection.
func (c *Connection) ensureTx(ctx context.Context) error {
	if c.opts.Autocommit || c.state == TxInTransaction {
		return nil
	}
	return c.beginLocked(ctx)
}

func (c *Connection) commitLocked(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.state != TxInTransaction {
		return nil
	}
	if n := len(c.savepoints); n > 0 {
		name := c.savepoints[n-1]
		start := time.Now()
		if err := c.adapter.Release(ctx, name); err != nil {
			return c.noteErr(err)
		}
		c.logSQL("RELEASE SAVEPOINT "+name, time.Since(start))
		c.savepoints = c.savepoints[:n-1]
		return nil
	}
	start := time.Now()
	if err := c.adapter.Commit(ctx); err != nil {
		return c.noteErr(err)
	}
	c.logSQL("COMMIT", time.Since(start))
	c.state = TxIdle
	return nil
}

func (c *Connection) rollbackLocked(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.state != TxInTransaction {
		return nil
	}
	if n := len(c.savepoints); n > 0 {
		name := c.savepoints[n-1]
		start := time.Now()
		if err := c.adapter.RollbackTo(ctx, name); err != nil {
			return c.noteErr(err)
		}
		if err := c.adapter.Release(ctx, name); err != nil {
			return c.noteErr(err)
		}
		c.logSQL("ROLLBACK TO SAVEPOINT "+name, time.Since(start))
		c.savepoints = c.savepoints[:n-1]
		return nil
	}
	start := time.Now()
	if err := c.adapter.Rollback(ctx); err != nil {
		return c.noteErr(err)
	}
	c.logSQL("ROLLBACK", time.Since(start))
	c.state = TxIdle
	return nil
}

// noteErr inspects a classified failure. A fatal operational error means
// the backend already discarded the session and with it any open
// transaction, so the local transaction state resets; every other kind
// leaves the transaction open for the caller to inspect and decide.
func (c *Connection) noteErr(err error) error {
	if dberr.IsFatal(err) && c.state == TxInTransaction {
		c.log.Warn("session lost, abandoning open transaction: %v", err)
		c.state = TxIdle
		c.savepoints = nil
	}
	return err
}

func (c *Connection) closeLocked(ctx context.Context) error {
	if c.closed {
		return nil
	}
	if c.state == TxInTransaction {
		// Never implicitly commit on teardown.
		if err := c.adapter.Rollback(ctx); err != nil {
			c.log.Warn("rollback on close failed: %v", err)
		}
		c.state = TxIdle
		c.savepoints = nil
	}
	for cur := range c.cursors {
		cur.invalidate()
	}
	c.cursors = nil
	c.closed = true

	err := c.adapter.Close()
	for _, mw := range c.opts.Middlewares {
		if serr := mw.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}
	c.log.Info("connection closed")
	return err
}

func (c *Connection) logSQL(stmt string, d time.Duration, args ...any) {
	c.log.SQL(stmt, d, args...)
}
