package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/value"
)

type memoryEntry struct {
	cols    []backend.Column
	rows    []value.Row
	expires time.Time // zero means no expiry
}

// MemoryCacheMiddleware caches SELECT results in process memory. A
// statement is cached only when its context carries a TTL, see
// WithCacheTTL.
type MemoryCacheMiddleware struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCacheMiddleware {
	return &MemoryCacheMiddleware{
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryCacheMiddleware) Name() string {
	return "MemoryCache"
}

func (m *MemoryCacheMiddleware) Init(conn *core.Connection) error {
	return nil
}

func (m *MemoryCacheMiddleware) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *MemoryCacheMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (backend.Result, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(stmt.Text) {
		return next(ctx, stmt)
	}
	key := cacheKey(stmt.Backend.String(), stmt.Text, stmt.Args)

	m.mu.RLock()
	entry, hit := m.entries[key]
	m.mu.RUnlock()
	if hit && (entry.expires.IsZero() || time.Now().Before(entry.expires)) {
		return backend.NewRowsResult(entry.cols, cloneRows(entry.rows)), nil
	}

	res, err := next(ctx, stmt)
	if err != nil || !res.HasRows() {
		return res, err
	}
	cols := res.Columns()
	rows, err := materialize(ctx, res)
	if err != nil {
		return nil, err
	}

	entry = memoryEntry{cols: cols, rows: rows}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	// The stored rows stay private to the cache; every consumer gets its
	// own copy, binary payloads included.
	return backend.NewRowsResult(cols, cloneRows(rows)), nil
}

func cloneRows(rows []value.Row) []value.Row {
	out := make([]value.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
