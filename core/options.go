package core

import (
	"time"

	"github.com/unidb/unidb/dialect"
	"github.com/unidb/unidb/logger"
)

// DefaultConnectTimeout bounds the initial handshake when the caller did
// not pick a limit. An unreachable server should fail fast instead of
// hanging the connect call.
const DefaultConnectTimeout = 10 * time.Second

// Options configures one Connection.
type Options struct {
	// Autocommit leaves every statement to commit on its own. When it is
	// false (the default), the first statement on an idle connection
	// opens a transaction that stays pending until Commit or Rollback.
	Autocommit bool
	// Timeout bounds every single operation on the connection. Zero
	// means no limit. A timed-out operation closes the cursor it ran on
	// but leaves the connection and its transaction state untouched.
	Timeout time.Duration
	// ConnectTimeout bounds the connect handshake only.
	ConnectTimeout time.Duration
	// Isolation is requested at transaction begin. The default keeps the
	// backend's own default level.
	Isolation dialect.Isolation
	// Logger receives statement and lifecycle logs.
	Logger logger.Logger
	// Middlewares intercept statement execution in registration order.
	Middlewares []Middleware
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.Logger == nil {
		o.Logger = logger.NewStdLogger()
	}
	return o
}
