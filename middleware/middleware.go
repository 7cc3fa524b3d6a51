// Package middleware provides statement-execution interceptors for
// unidb connections: slow-statement logging, a circuit breaker and
// result caches.
package middleware

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/value"
)

// cacheTTLKey is the context key the cache middlewares look for. A
// statement executes uncached unless its context carries a TTL.
type ctxKey string

const cacheTTLKey ctxKey = "unidb_cache_ttl"

// WithCacheTTL marks the statements executed under ctx as cacheable for
// ttl. A negative ttl caches without expiry; zero disables caching.
func WithCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, cacheTTLKey, ttl)
}

func cacheTTL(ctx context.Context) (time.Duration, bool) {
	ttl, ok := ctx.Value(cacheTTLKey).(time.Duration)
	if !ok || ttl == 0 {
		return 0, false
	}
	return ttl, true
}

// cacheable reports whether the statement is a plain read that a result
// cache may serve.
func cacheable(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "SELECT")
}

// cacheKey fingerprints a statement with its bound parameters.
func cacheKey(backendName, stmt string, args []any) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%v", backendName, stmt, args)
	return fmt.Sprintf("unidb:%x", h.Sum64())
}

// materialize drains a result stream into memory so it can be stored
// and replayed.
func materialize(ctx context.Context, res backend.Result) ([]value.Row, error) {
	defer res.Close()
	var rows []value.Row
	for {
		batch, err := res.FetchBatch(ctx, 256)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return rows, nil
		}
		rows = append(rows, batch...)
	}
}
