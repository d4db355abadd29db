// Package localdb opens the client's SQLite file and applies its schema.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/moodjournal/internal/client/migrations"
	"github.com/dmitrijs2005/moodjournal/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var gooseUpContext = goose.UpContext

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return gooseUpContext(ctx, db, ".")
}

// Open creates the parent directory if needed, opens the database at path and
// migrates it. The caller owns the returned handle.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		abs, err := filex.EnsureParentDir(path)
		if err != nil {
			return nil, fmt.Errorf("prepare db dir: %w", err)
		}
		path = abs
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}
