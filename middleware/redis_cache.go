package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/value"
)

// RedisCacheMiddleware caches SELECT results in Redis, serialized as
// JSON through the unified value model. A statement is cached only when
// its context carries a TTL, see WithCacheTTL.
type RedisCacheMiddleware struct {
	Client *redis.Client
}

// redisPayload is the stored form of one result set.
type redisPayload struct {
	Cols []backend.Column `json:"cols"`
	Rows []value.Row      `json:"rows"`
}

func NewRedisCache(opt *redis.Options) *RedisCacheMiddleware {
	return &RedisCacheMiddleware{
		Client: redis.NewClient(opt),
	}
}

func (m *RedisCacheMiddleware) Name() string {
	return "RedisCache"
}

func (m *RedisCacheMiddleware) Init(conn *core.Connection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Ping(ctx).Err()
}

func (m *RedisCacheMiddleware) Shutdown() error {
	return m.Client.Close()
}

func (m *RedisCacheMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.ExecFunc) (backend.Result, error) {
	ttl, ok := cacheTTL(ctx)
	if !ok || !cacheable(stmt.Text) {
		return next(ctx, stmt)
	}
	key := cacheKey(stmt.Backend.String(), stmt.Text, stmt.Args)

	raw, err := m.Client.Get(ctx, key).Bytes()
	if err == nil {
		var payload redisPayload
		if jerr := json.Unmarshal(raw, &payload); jerr == nil {
			return backend.NewRowsResult(payload.Cols, payload.Rows), nil
		}
		// Corrupt entry: fall through and overwrite it.
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not fail the statement.
		return next(ctx, stmt)
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

	if raw, jerr := json.Marshal(redisPayload{Cols: cols, Rows: rows}); jerr == nil {
		expiry := ttl
		if expiry < 0 {
			expiry = 0 // no expiry
		}
		m.Client.Set(ctx, key, raw, expiry)
	}
	return backend.NewRowsResult(cols, rows), nil
}
