package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"market-spread-lab/internal/storage/postgres"
)

// migrationFile pairs a migration's name with its trimmed SQL.
type migrationFile struct {
	name string
	sql  string
}

// sqlFiles loads the .sql entries of an embedded directory in lexical
// order, which is the apply order.
func sqlFiles(fsys embed.FS, dir string) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		files = append(files, migrationFile{name: e.Name(), sql: strings.TrimSpace(string(data))})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// RunPostgresMigrations applies the embedded scan-table migrations in
// lexical order. Every migration uses IF NOT EXISTS so reruns are
// harmless.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := sqlFiles(postgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.sql == "" {
			continue
		}
		if _, err := pool.Exec(ctx, f.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}
	return nil
}
