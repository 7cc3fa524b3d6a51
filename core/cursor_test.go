package core

import (
	"context"
	"testing"
	"time"

	"github.com/unidb/unidb/dberr"
	"github.com/unidb/unidb/logger"
	"github.com/unidb/unidb/value"
)

func openCursor(t *testing.T, conn *Connection) *Cursor {
	t.Helper()
	cur, err := conn.Cursor()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cur.Close(context.Background()) })
	return cur
}

func seedPeople(t *testing.T, conn *Connection) {
	t.Helper()
	mustExec(t, conn, "CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT)")
	cur := openCursor(t, conn)
	err := cur.ExecuteMany(context.Background(), "INSERT INTO people (name) VALUES (?)", [][]any{
		{"ada"}, {"grace"}, {"edsger"},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestFetchBeforeExecute(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	_, err := cur.Fetchone(context.Background())
	if dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("err = %v; want programming error", err)
	}
}

func TestFetchAfterNonQuery(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Execute(ctx, "CREATE TABLE t (n INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := cur.Fetchone(ctx); dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("fetch after DDL: %v; want programming error", err)
	}
	if cur.Description() != nil {
		t.Error("DDL statement has a description")
	}
}

func TestFetchoneUntilExhausted(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Execute(ctx, "SELECT name FROM people ORDER BY id"); err != nil {
		t.Fatal(err)
	}

	want := []string{"ada", "grace", "edsger"}
	for _, name := range want {
		row, err := cur.Fetchone(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := row[0].Text(); got != name {
			t.Errorf("row = %v; want %q", row, name)
		}
	}
	// Exhaustion is not an error, and stays that way on repeat.
	for i := 0; i < 2; i++ {
		row, err := cur.Fetchone(ctx)
		if err != nil || row != nil {
			t.Errorf("post-exhaustion fetchone = %v, %v", row, err)
		}
	}
}

func TestFetchmanyUsesArraySize(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Execute(ctx, "SELECT name FROM people ORDER BY id"); err != nil {
		t.Fatal(err)
	}

	// Default array size is 1.
	rows, err := cur.Fetchmany(ctx, 0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("fetchmany(0) = %v, %v", rows, err)
	}
	cur.SetArraySize(2)
	rows, err = cur.Fetchmany(ctx, 0)
	if err != nil || len(rows) != 2 {
		t.Fatalf("fetchmany(0) after SetArraySize(2) = %v, %v", rows, err)
	}
	rows, err = cur.Fetchmany(ctx, 5)
	if err != nil || len(rows) != 0 {
		t.Errorf("exhausted fetchmany = %v, %v", rows, err)
	}
}

func TestFetchall(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Execute(ctx, "SELECT name FROM people"); err != nil {
		t.Fatal(err)
	}
	rows, err := cur.Fetchall(ctx)
	if err != nil || len(rows) != 3 {
		t.Fatalf("fetchall = %v, %v", rows, err)
	}
	rows, err = cur.Fetchall(ctx)
	if err != nil || len(rows) != 0 {
		t.Errorf("second fetchall = %v, %v", rows, err)
	}
}

func TestRowcountSemantics(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()

	if err := cur.Execute(ctx, "UPDATE people SET name = upper(name)"); err != nil {
		t.Fatal(err)
	}
	if got := cur.Rowcount(); got != 3 {
		t.Errorf("update rowcount = %d; want 3", got)
	}

	// A streaming result set never reports a count.
	if err := cur.Execute(ctx, "SELECT name FROM people"); err != nil {
		t.Fatal(err)
	}
	if got := cur.Rowcount(); got != -1 {
		t.Errorf("select rowcount = %d; want -1", got)
	}
}

func TestExecuteRearmsCursor(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()

	if err := cur.Execute(ctx, "SELECT id, name FROM people"); err != nil {
		t.Fatal(err)
	}
	if _, err := cur.Fetchone(ctx); err != nil {
		t.Fatal(err)
	}

	// Re-executing abandons the half-fetched result set.
	if err := cur.Execute(ctx, "SELECT name FROM people"); err != nil {
		t.Fatal(err)
	}
	if desc := cur.Description(); len(desc) != 1 || desc[0].Name != "name" {
		t.Errorf("description after re-execute = %+v", desc)
	}
	rows, err := cur.Fetchall(ctx)
	if err != nil || len(rows) != 3 {
		t.Errorf("fetchall after re-execute = %v, %v", rows, err)
	}
}

func TestExecuteManySumsAffected(t *testing.T) {
	conn, _ := openTemp(t, nil)
	mustExec(t, conn, "CREATE TABLE t (n INTEGER)")
	cur := openCursor(t, conn)
	ctx := context.Background()

	err := cur.ExecuteMany(ctx, "INSERT INTO t VALUES (?)", [][]any{{1}, {2}, {3}})
	if err != nil {
		t.Fatal(err)
	}
	if got := cur.Rowcount(); got != 3 {
		t.Errorf("rowcount = %d; want 3", got)
	}
}

func TestExecuteManyEmptyIsNoop(t *testing.T) {
	conn, _ := openTemp(t, nil)
	mustExec(t, conn, "CREATE TABLE t (n INTEGER)")
	cur := openCursor(t, conn)

	if err := cur.ExecuteMany(context.Background(), "INSERT INTO t VALUES (?)", nil); err != nil {
		t.Fatal(err)
	}
	if got := cur.Rowcount(); got != 0 {
		t.Errorf("rowcount = %d; want 0", got)
	}
}

func TestExecuteManyRejectsResultSets(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)

	err := cur.ExecuteMany(context.Background(), "SELECT * FROM people WHERE name = ?", [][]any{{"ada"}})
	if dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("err = %v; want programming error", err)
	}
}

func TestExecuteRejectsParamMismatch(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	err := cur.Execute(context.Background(), "SELECT ?", 1, 2)
	if dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("err = %v; want programming error", err)
	}
}

func TestExecuteRejectsUnsupportedParam(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	err := cur.Execute(context.Background(), "SELECT ?", make(chan int))
	if dberr.KindOf(err) != dberr.KindInterface {
		t.Errorf("err = %v; want interface error", err)
	}
}

func TestExecuteBindsValues(t *testing.T) {
	conn, _ := openTemp(t, nil)
	mustExec(t, conn, "CREATE TABLE t (n INTEGER, s TEXT)")
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Execute(ctx, "INSERT INTO t VALUES (?, ?)", value.Int(5), value.Text("x")); err != nil {
		t.Fatal(err)
	}
	if got := queryInt(t, conn, "SELECT n FROM t WHERE s = ?", "x"); got != 5 {
		t.Errorf("bound row n = %d; want 5", got)
	}
}

func TestClosedCursorRejectsOperations(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	ctx := context.Background()
	if err := cur.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := cur.Close(ctx); err != nil {
		t.Errorf("second close: %v", err)
	}
	if err := cur.Execute(ctx, "SELECT 1"); dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("execute on closed cursor: %v; want programming error", err)
	}
	if _, err := cur.Fetchone(ctx); dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("fetch on closed cursor: %v; want programming error", err)
	}
}

func TestCursorCloseAfterConnectionClose(t *testing.T) {
	conn, _ := openTemp(t, nil)
	cur := openCursor(t, conn)
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	// Teardown already invalidated the cursor; closing it again is a
	// no-op, not an interface error.
	if err := cur.Close(context.Background()); err != nil {
		t.Errorf("close after connection close: %v", err)
	}
}

func TestTimeoutClosesCursorOnly(t *testing.T) {
	conn, _ := openTemp(t, &Options{
		Timeout: 50 * time.Millisecond,
		Logger:  logger.NewSilentLogger(),
	})
	cur := openCursor(t, conn)
	ctx := context.Background()

	// Unbounded recursion keeps the statement running until the
	// per-operation deadline interrupts it.
	err := cur.Execute(ctx, `
		WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM c)
		SELECT count(*) FROM c`)
	if dberr.KindOf(err) != dberr.KindOperational {
		t.Fatalf("err = %v; want operational error", err)
	}

	// The timed-out cursor is gone, the connection is not.
	if err := cur.Execute(ctx, "SELECT 1"); dberr.KindOf(err) != dberr.KindProgramming {
		t.Errorf("reuse of timed-out cursor: %v; want programming error", err)
	}
	fresh := openCursor(t, conn)
	if err := fresh.Execute(ctx, "SELECT 1"); err != nil {
		t.Errorf("connection unusable after timeout: %v", err)
	}
}

func TestAsyncOperations(t *testing.T) {
	conn, _ := openTemp(t, nil)
	seedPeople(t, conn)
	cur := openCursor(t, conn)
	ctx := context.Background()

	op := cur.ExecuteAsync(ctx, "SELECT count(*) FROM people")
	select {
	case <-op.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("execute never settled")
	}
	if _, err := op.Wait(); err != nil {
		t.Fatal(err)
	}
	row, err := cur.FetchoneAsync(ctx).Wait()
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := row[0].Int(); n != 3 {
		t.Errorf("count = %d; want 3", n)
	}
}
