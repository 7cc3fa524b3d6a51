package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/dberr"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unidb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConnectFromConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")
	cfg := writeConfig(t, `
database:
  backend: sqlite
  name: `+dbPath+`
  autocommit: true
  timeout: 250ms
`)

	conn, err := ConnectFromConfig(context.Background(), cfg, testOptions())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	if conn.Kind() != backend.SQLite {
		t.Errorf("kind = %v", conn.Kind())
	}
	if !conn.opts.Autocommit {
		t.Error("autocommit from file not applied")
	}
	if conn.opts.Timeout != 250*time.Millisecond {
		t.Errorf("timeout = %v; want 250ms", conn.opts.Timeout)
	}
	mustExec(t, conn, "CREATE TABLE t (n INTEGER)")
}

func TestConnectFromConfigErrors(t *testing.T) {
	_, err := ConnectFromConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), testOptions())
	if dberr.KindOf(err) != dberr.KindInterface {
		t.Errorf("missing file: %v; want interface error", err)
	}

	cfg := writeConfig(t, "database:\n  backend: oracle\n  name: x\n")
	if _, err := ConnectFromConfig(context.Background(), cfg, testOptions()); dberr.KindOf(err) != dberr.KindInterface {
		t.Errorf("unknown backend: %v; want interface error", err)
	}

	cfg = writeConfig(t, "database:\n  backend: sqlite\n  name: x\n  timeout: soon\n")
	if _, err := ConnectFromConfig(context.Background(), cfg, testOptions()); dberr.KindOf(err) != dberr.KindInterface {
		t.Errorf("bad timeout: %v; want interface error", err)
	}
}
