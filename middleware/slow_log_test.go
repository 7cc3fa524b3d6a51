package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/unidb/unidb/value"
)

func TestSlowLogLogsSlowStatements(t *testing.T) {
	var buf bytes.Buffer
	mw := NewSlowLog(0, "") // threshold zero: everything is slow
	mw.SetOutput(&buf)

	stub := &nextStub{rows: []value.Row{{value.Int(1)}}}
	if _, err := mw.Process(context.Background(), selectStmt("SELECT pg_sleep(0)"), stub.exec); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[SLOW SQL]") || !strings.Contains(out, "SELECT pg_sleep(0)") {
		t.Errorf("log output = %q", out)
	}
}

func TestSlowLogSkipsFastStatements(t *testing.T) {
	var buf bytes.Buffer
	mw := NewSlowLog(time.Hour, "")
	mw.SetOutput(&buf)

	stub := &nextStub{rows: []value.Row{{value.Int(1)}}}
	if _, err := mw.Process(context.Background(), selectStmt("SELECT 1"), stub.exec); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("fast statement was logged: %q", buf.String())
	}
}
