// Package unidb is a unified database access layer over SQLite, MySQL
// and PostgreSQL. One connection/cursor/transaction contract covers all
// three backends; callers may drive it through blocking calls or through
// asynchronous operation handles backed by each connection's private
// single-flight session.
package unidb

import (
	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/dialect"
	"github.com/unidb/unidb/value"
)

// Re-export core types and functions
type (
	Connection = core.Connection
	Cursor     = core.Cursor
	Options    = core.Options
	Statement  = core.Statement
	Middleware = core.Middleware

	Kind   = backend.Kind
	Params = backend.Params
	Column = backend.Column

	Value = value.Value
	Row   = value.Row
)

var (
	Connect           = core.Connect
	ConnectFromConfig = core.ConnectFromConfig

	ParseKind = backend.ParseKind
)

// Supported backends
const (
	SQLite   = backend.SQLite
	MySQL    = backend.MySQL
	Postgres = backend.Postgres
)

// Transaction isolation levels
const (
	IsolationDefault        = dialect.IsolationDefault
	IsolationReadCommitted  = dialect.IsolationReadCommitted
	IsolationRepeatableRead = dialect.IsolationRepeatableRead
	IsolationSerializable   = dialect.IsolationSerializable
)

// Error taxonomy
const (
	KindInterface    = dberr.KindInterface
	KindOperational  = dberr.KindOperational
	KindProgramming  = dberr.KindProgramming
	KindIntegrity    = dberr.KindIntegrity
	KindData         = dberr.KindData
	KindNotSupported = dberr.KindNotSupported
)

var (
	KindOf  = dberr.KindOf
	IsFatal = dberr.IsFatal
)
