package migrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	chstore "market-spread-lab/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the candle database if needed and
// applies the embedded migrations. The returned connection targets the
// database named in the DSN and is ready for store use.
func RunClickhouseMigrations(ctx context.Context, dsn string) (*chstore.Conn, error) {
	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	// Database creation needs a connection without a target database.
	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := admin.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	files, err := sqlFiles(clickhouseFS, "clickhouse")
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, f := range files {
		if err := checkLiteralSemicolons(f.sql); err != nil {
			conn.Close()
			return nil, fmt.Errorf("validate migration %s: %w", f.name, err)
		}
		// The native driver executes one statement per Exec, so
		// multi-statement files are split first.
		for _, stmt := range splitStatements(f.sql) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
	}

	return conn, nil
}

// splitStatements cuts a migration file into statements on semicolons,
// after stripping blank and `--` comment lines. The splitter assumes no
// semicolons inside string literals and no /* */ comments; migrations
// that violate this are rejected by checkLiteralSemicolons before the
// split runs.
func splitStatements(sql string) []string {
	var kept []string
	for _, line := range strings.Split(sql, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, piece := range strings.Split(strings.Join(kept, "\n"), ";") {
		if s := strings.TrimSpace(piece); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// checkLiteralSemicolons rejects SQL with a semicolon inside a
// single-quoted string, the one construct splitStatements cannot
// handle. Doubled quotes ('') are treated as escapes.
func checkLiteralSemicolons(sql string) error {
	quoted := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			quoted = !quoted
		case ';':
			if quoted {
				return fmt.Errorf("semicolon inside string literal")
			}
		}
	}
	return nil
}

// databaseFromDSN extracts the target database from a clickhouse:// DSN.
func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
