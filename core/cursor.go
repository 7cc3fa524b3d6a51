package core

import (
	"context"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/value"
)

// fetchAllBatch is the stream batch size Fetchall drains with.
const fetchAllBatch = 256

// Cursor is one statement's execution and result-iteration handle. It
// moves Fresh → Executed → Fetching → Exhausted, re-arms on every
// execute, and reaches Closed from any state. All its operations run on
// the owning connection's session queue.
type Cursor struct {
	conn *Connection

	stmt      string
	res       backend.Result
	desc      []backend.Column
	pos       int64
	rowcount  int64
	arraySize int
	executed  bool
	exhausted bool
	closed    bool
}

// Execute runs one statement with the given parameters. Parameters use
// the canonical '?' placeholder style on every backend; the dialect
// translates them to the native form.
func (cur *Cursor) Execute(ctx context.Context, stmt string, args ...any) error {
	_, err := cur.ExecuteAsync(ctx, stmt, args...).Wait()
	return err
}

// ExecuteAsync is the asynchronous equivalent of Execute.
func (cur *Cursor) ExecuteAsync(ctx context.Context, stmt string, args ...any) *Operation[struct{}] {
	return startOp(cur.conn.sess, ctx, cur.conn.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		if err := cur.checkUsable(); err != nil {
			return struct{}{}, err
		}
		cur.reset()
		res, err := cur.execLocked(opCtx, stmt, args)
		if err != nil {
			return struct{}{}, err
		}
		cur.stmt = stmt
		cur.executed = true
		cur.res = res
		cur.rowcount = res.RowsAffected()
		if res.HasRows() {
			cur.desc = res.Columns()
		}
		return struct{}{}, nil
	})
}

// ExecuteMany runs one statement once per parameter set, inside the same
// transaction scope. An empty sequence is a no-op with rowcount 0.
// Statements producing result sets are rejected.
func (cur *Cursor) ExecuteMany(ctx context.Context, stmt string, paramSets [][]any) error {
	_, err := cur.ExecuteManyAsync(ctx, stmt, paramSets).Wait()
	return err
}

// ExecuteManyAsync is the asynchronous equivalent of ExecuteMany.
func (cur *Cursor) ExecuteManyAsync(ctx context.Context, stmt string, paramSets [][]any) *Operation[struct{}] {
	return startOp(cur.conn.sess, ctx, cur.conn.opts.Timeout, func(opCtx context.Context) (struct{}, error) {
		if err := cur.checkUsable(); err != nil {
			return struct{}{}, err
		}
		cur.reset()
		cur.stmt = stmt
		cur.executed = true
		var total int64
		for _, args := range paramSets {
			res, err := cur.execLocked(opCtx, stmt, args)
			if err != nil {
				cur.rowcount = total
				return struct{}{}, err
			}
			if res.HasRows() {
				res.Close()
				cur.rowcount = total
				return struct{}{}, dberr.New(dberr.KindProgramming,
					"executemany cannot run statements returning rows")
			}
			if n := res.RowsAffected(); n > 0 {
				total += n
			}
			res.Close()
		}
		cur.rowcount = total
		return struct{}{}, nil
	})
}

// Fetchone returns the next row of the pending result set, or a nil row
// once the set is exhausted.
func (cur *Cursor) Fetchone(ctx context.Context) (value.Row, error) {
	return cur.FetchoneAsync(ctx).Wait()
}

// FetchoneAsync is the asynchronous equivalent of Fetchone.
func (cur *Cursor) FetchoneAsync(ctx context.Context) *Operation[value.Row] {
	return startOp(cur.conn.sess, ctx, cur.conn.opts.Timeout, func(opCtx context.Context) (value.Row, error) {
		batch, err := cur.fetchLocked(opCtx, 1)
		if err != nil || len(batch) == 0 {
			return nil, err
		}
		return batch[0], nil
	})
}

// Fetchmany returns up to size rows, fewer near exhaustion and none once
// exhausted. A non-positive size uses the cursor's array size, which
// defaults to 1.
func (cur *Cursor) Fetchmany(ctx context.Context, size int) ([]value.Row, error) {
	return cur.FetchmanyAsync(ctx, size).Wait()
}

// FetchmanyAsync is the asynchronous equivalent of Fetchmany.
func (cur *Cursor) FetchmanyAsync(ctx context.Context, size int) *Operation[[]value.Row] {
	return startOp(cur.conn.sess, ctx, cur.conn.opts.Timeout, func(opCtx context.Context) ([]value.Row, error) {
		if size <= 0 {
			size = cur.arraySize
			if size <= 0 {
				size = 1
			}
		}
		return cur.fetchLocked(opCtx, size)
	})
}

// Fetchall drains the remainder of the pending result set.
func (cur *Cursor) Fetchall(ctx context.Context) ([]value.Row, error) {
	return cur.FetchallAsync(ctx).Wait()
}

// FetchallAsync is the asynchronous equivalent of Fetchall.
func (cur *Cursor) FetchallAsync(ctx context.Context) *Operation[[]value.Row] {
	return startOp(cur.conn.sess, ctx, cur.conn.opts.Timeout, func(opCtx context.Context) ([]value.Row, error) {
		var rows []value.Row
		for {
			batch, err := cur.fetchLocked(opCtx, fetchAllBatch)
			if err != nil {
				return nil, err
			}
			rows = append(rows, batch...)
			if len(batch) < fetchAllBatch {
				return rows, nil
			}
		}
	})
}

// SetArraySize sets the default batch size Fetchmany uses when called
// without an explicit size.
func (cur *Cursor) SetArraySize(n int) {
	runOp(cur.conn.sess, context.Background(), 0, func(context.Context) (struct{}, error) {
		cur.arraySize = n
		return struct{}{}, nil
	})
}

// Description returns the result set's column metadata, nil when the
// last statement produced no result set.
func (cur *Cursor) Description() []backend.Column {
	desc, _ := runOp(cur.conn.sess, context.Background(), 0, func(context.Context) ([]backend.Column, error) {
		return cur.desc, nil
	})
	return desc
}

// Rowcount reports the affected-row count of the last statement, or -1
// while a result set is streaming.
func (cur *Cursor) Rowcount() int64 {
	n, err := runOp(cur.conn.sess, context.Background(), 0, func(context.Context) (int64, error) {
		return cur.rowcount, nil
	})
	if err != nil {
		return -1
	}
	return n
}

// Close releases the cursor. It is idempotent.
func (cur *Cursor) Close(ctx context.Context) error {
	_, err := cur.CloseAsync(ctx).Wait()
	return err
}

// CloseAsync is the asynchronous equivalent of Close. Closing a cursor
// is idempotent even after its connection is gone: connection teardown
// already invalidated every cursor, so there is nothing left to do.
func (cur *Cursor) CloseAsync(ctx context.Context) *Operation[struct{}] {
	op := &Operation[struct{}]{done: make(chan struct{})}
	thunk := func() {
		defer close(op.done)
		if cur.closed {
			return
		}
		cur.invalidate()
		if cur.conn.cursors != nil {
			delete(cur.conn.cursors, cur)
		}
	}
	select {
	case cur.conn.sess.ops <- thunk:
	case <-cur.conn.sess.closed:
		close(op.done)
	case <-ctx.Done():
		op.err = dberr.Wrap(dberr.KindOperational, ctx.Err(), "operation abandoned while queued")
		close(op.done)
	}
	return op
}

// invalidate force-closes the cursor. Called under the session loop.
func (cur *Cursor) invalidate() {
	cur.closed = true
	if cur.res != nil {
		cur.res.Close()
		cur.res = nil
	}
}

func (cur *Cursor) checkUsable() error {
	if cur.closed {
		return dberr.New(dberr.KindProgramming, "cursor is closed")
	}
	return cur.conn.checkOpen()
}

func (cur *Cursor) reset() {
	if cur.res != nil {
		cur.res.Close()
		cur.res = nil
	}
	cur.desc = nil
	cur.pos = -1
	cur.rowcount = -1
	cur.executed = false
	cur.exhausted = false
}

// execLocked binds the parameters, opens the implicit transaction where
// autocommit demands one and pushes the statement through the middleware
// chain into the adapter.
func (cur *Cursor) execLocked(ctx context.Context, stmt string, args []any) (backend.Result, error) {
	bound := make([]any, len(args))
	for i, a := range args {
		v, err := value.BindArg(a)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindInterface, err, "parameter %d", i+1)
		}
		bound[i] = v
	}
	if err := cur.conn.ensureTx(ctx); err != nil {
		return nil, err
	}
	s := &Statement{Text: stmt, Args: bound, Backend: cur.conn.kind}
	exec := cur.conn.chain(func(ctx context.Context, s *Statement) (backend.Result, error) {
		return cur.conn.adapter.Execute(ctx, s.Text, s.Args)
	})
	start := time.Now()
	res, err := exec(ctx, s)
	cur.conn.logSQL(stmt, time.Since(start), args...)
	if err != nil {
		return nil, cur.fail(ctx, err)
	}
	return res, nil
}

func (cur *Cursor) fetchLocked(ctx context.Context, n int) ([]value.Row, error) {
	if err := cur.checkUsable(); err != nil {
		return nil, err
	}
	if !cur.executed {
		return nil, dberr.New(dberr.KindProgramming, "fetch before execute")
	}
	if cur.res == nil || !cur.res.HasRows() {
		return nil, dberr.New(dberr.KindProgramming, "last statement produced no result set")
	}
	if cur.exhausted {
		return nil, nil
	}
	batch, err := cur.res.FetchBatch(ctx, n)
	if err != nil {
		return nil, cur.fail(ctx, err)
	}
	if len(batch) < n {
		cur.exhausted = true
	}
	cur.pos += int64(len(batch))
	return batch, nil
}

// fail routes a classified failure through the connection's transaction
// bookkeeping. A timed-out or canceled operation leaves this cursor's
// result state indeterminate, so the cursor closes; the connection and
// its transaction state stay as they were.
func (cur *Cursor) fail(ctx context.Context, err error) error {
	cur.conn.noteErr(err)
	if ctx.Err() != nil {
		cur.invalidate()
	}
	return err
}
