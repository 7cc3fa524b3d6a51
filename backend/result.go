package backend

import (
	"context"
	"database/sql"

	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/value"
)

// streamResult is a live row stream over the backend session. Rows are
// pulled in batches and converted through the unified value model as
// they arrive.
type streamResult struct {
	rows     *sql.Rows
	cols     []Column
	cancel   context.CancelFunc
	classify func(error) error
	backend  Kind
	done     bool
}

func (r *streamResult) Columns() []Column   { return r.cols }
func (r *streamResult) HasRows() bool       { return true }
func (r *streamResult) RowsAffected() int64 { return -1 }
func (r *streamResult) LastInsertID() int64 { return 0 }

func (r *streamResult) FetchBatch(ctx context.Context, n int) ([]value.Row, error) {
	if r.done || n <= 0 {
		return nil, nil
	}
	stop := watch(ctx, r.cancel)
	defer stop()

	natives := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range natives {
		ptrs[i] = &natives[i]
	}

	batch := make([]value.Row, 0, n)
	for len(batch) < n {
		if !r.rows.Next() {
			r.done = true
			err := r.rows.Err()
			r.rows.Close()
			r.cancel()
			if err != nil {
				if ctx.Err() != nil {
					return nil, r.classify(ctx.Err())
				}
				return nil, r.classify(err)
			}
			break
		}
		if err := r.rows.Scan(ptrs...); err != nil {
			return nil, r.classify(err)
		}
		row := make(value.Row, len(r.cols))
		for i, native := range natives {
			v, err := value.Convert(native, r.cols[i].Type)
			if err != nil {
				return nil, dberr.Wrap(dberr.KindData, err,
					"%s: column %s", r.backend, r.cols[i].Name)
			}
			row[i] = v
		}
		batch = append(batch, row)
	}
	return batch, nil
}

func (r *streamResult) Close() error {
	r.done = true
	err := r.rows.Close()
	r.cancel()
	if err != nil {
		return r.classify(err)
	}
	return nil
}

// MemoryResult is a fully materialized result. It backs non-query
// statements (affected counts only) and replayed result sets such as
// cache hits.
type MemoryResult struct {
	cols     []Column
	rows     []value.Row
	pos      int
	affected int64
	lastID   int64
	hasRows  bool
}

// NewAffectedResult wraps a non-query outcome.
func NewAffectedResult(affected, lastID int64) *MemoryResult {
	return &MemoryResult{affected: affected, lastID: lastID}
}

// NewRowsResult wraps a materialized result set.
func NewRowsResult(cols []Column, rows []value.Row) *MemoryResult {
	return &MemoryResult{cols: cols, rows: rows, affected: -1, hasRows: true}
}

func (r *MemoryResult) Columns() []Column   { return r.cols }
func (r *MemoryResult) HasRows() bool       { return r.hasRows }
func (r *MemoryResult) RowsAffected() int64 { return r.affected }
func (r *MemoryResult) LastInsertID() int64 { return r.lastID }

func (r *MemoryResult) FetchBatch(_ context.Context, n int) ([]value.Row, error) {
	if r.pos >= len(r.rows) || n <= 0 {
		return nil, nil
	}
	end := r.pos + n
	if end > len(r.rows) {
		end = len(r.rows)
	}
	// A fresh slice header, so the caller appending to the batch cannot
	// clobber rows still waiting to be fetched.
	batch := make([]value.Row, end-r.pos)
	copy(batch, r.rows[r.pos:end])
	r.pos = end
	return batch, nil
}

func (r *MemoryResult) Close() error {
	r.pos = len(r.rows)
	return nil
}
