package backend

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/unidb/unidb/dberr"
)

func connectPostgres(ctx context.Context, p Params) (Adapter, error) {
	parts := []string{
		"host=" + conninfoQuote(p.Host),
		fmt.Sprintf("port=%d", p.Port),
		"dbname=" + conninfoQuote(p.Name),
		"sslmode=" + conninfoQuote(p.SSLMode),
	}
	if p.User != "" {
		parts = append(parts, "user="+conninfoQuote(p.User))
	}
	if p.Password != "" {
		parts = append(parts, "password="+conninfoQuote(p.Password))
	}
	return open(ctx, Postgres, strings.Join(parts, " "), p, dberr.ClassifyPostgres)
}

// conninfoQuote escapes a libpq key/value connection string value.
func conninfoQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " '\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
