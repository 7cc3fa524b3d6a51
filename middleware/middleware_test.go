package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/value"
)

func TestCacheTTL(t *testing.T) {
	if _, ok := cacheTTL(context.Background()); ok {
		t.Error("bare context reported a TTL")
	}
	ctx := WithCacheTTL(context.Background(), time.Minute)
	ttl, ok := cacheTTL(ctx)
	if !ok || ttl != time.Minute {
		t.Errorf("cacheTTL = %v, %v", ttl, ok)
	}
	if _, ok := cacheTTL(WithCacheTTL(context.Background(), 0)); ok {
		t.Error("zero TTL should disable caching")
	}
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false}, // only plain SELECT is cached
	}
	for _, tt := range tests {
		if got := cacheable(tt.stmt); got != tt.want {
			t.Errorf("cacheable(%q) = %v; want %v", tt.stmt, got, tt.want)
		}
	}
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("sqlite", "SELECT ?", []any{int64(1)})
	b := cacheKey("sqlite", "SELECT ?", []any{int64(2)})
	c := cacheKey("mysql", "SELECT ?", []any{int64(1)})
	if a == b || a == c {
		t.Errorf("cache keys collide: %q %q %q", a, b, c)
	}
	if a != cacheKey("sqlite", "SELECT ?", []any{int64(1)}) {
		t.Error("cache key is not deterministic")
	}
}

// nextStub counts adapter calls and serves a fixed result set.
type nextStub struct {
	calls int
	rows  []value.Row
	err   error
}

func (s *nextStub) exec(context.Context, *core.Statement) (backend.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return backend.NewRowsResult(
		[]backend.Column{{Name: "n", Type: value.TypeInt}},
		s.rows,
	), nil
}

func selectStmt(text string) *core.Statement {
	return &core.Statement{Text: text, Backend: backend.SQLite}
}

func TestMaterialize(t *testing.T) {
	rows := make([]value.Row, 300)
	for i := range rows {
		rows[i] = value.Row{value.Int(int64(i))}
	}
	got, err := materialize(context.Background(), backend.NewRowsResult(nil, rows))
	if err != nil || len(got) != 300 {
		t.Errorf("materialize = %d rows, %v; want 300", len(got), err)
	}
}
