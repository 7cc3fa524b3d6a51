// Command unidb executes a single statement against any supported
// backend and prints the unified result.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/unidb/unidb/backend"
	"github.com/unidb/unidb/core"
	"github.com/unidb/unidb/logger"
)

func main() {
	app := &cli.App{
		Name:  "unidb",
		Usage: "run a statement against SQLite, MySQL or PostgreSQL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Value: "sqlite", Usage: "sqlite, mysql or postgres"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "database name, or file for sqlite", Required: true},
			&cli.StringFlag{Name: "host", Usage: "server host"},
			&cli.UintFlag{Name: "port", Usage: "server port"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "user name"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "password"},
			&cli.BoolFlag{Name: "autocommit", Usage: "commit every statement on its own"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-operation timeout"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every statement"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "unidb:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one statement argument", 2)
	}
	stmt := c.Args().First()

	kind, err := backend.ParseKind(c.String("backend"))
	if err != nil {
		return err
	}
	params := backend.Params{
		Name:     c.String("name"),
		Host:     c.String("host"),
		Port:     uint16(c.Uint("port")),
		User:     c.String("user"),
		Password: c.String("password"),
	}
	opts := &core.Options{
		Autocommit: c.Bool("autocommit"),
		Timeout:    c.Duration("timeout"),
		Logger:     logger.NewSilentLogger(),
	}
	if c.Bool("verbose") {
		opts.Logger = logger.NewStdLogger()
	}

	ctx := context.Background()
	conn, err := core.Connect(ctx, kind, params, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	cur, err := conn.Cursor()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := cur.Execute(ctx, stmt); err != nil {
		return err
	}

	desc := cur.Description()
	if desc == nil {
		if err := conn.Commit(ctx); err != nil {
			return err
		}
		fmt.Printf("%d row(s) affected in %v\n", cur.Rowcount(), time.Since(start))
		return nil
	}

	names := make([]string, len(desc))
	for i, col := range desc {
		names[i] = col.Name
	}
	fmt.Println(strings.Join(names, "\t"))

	rows, err := cur.Fetchall(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
	fmt.Printf("%d row(s) in %v\n", len(rows), time.Since(start))
	return nil
}
