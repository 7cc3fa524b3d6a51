package backend

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/unidb/unidb/dberr"
)

func connectMySQL(ctx context.Context, p Params) (Adapter, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	cfg.DBName = p.Name
	cfg.User = p.User
	cfg.Passwd = p.Password
	// Temporal columns arrive as time.Time instead of raw []byte, which
	// keeps the type bridge's date paths uniform across backends.
	cfg.ParseTime = true
	return open(ctx, MySQL, cfg.FormatDSN(), p, dberr.ClassifyMySQL)
}
