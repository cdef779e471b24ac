package store

import (
	"context"
	"embed"
	"io/fs"

	"github.com/pressly/goose/v3"

	"sapsan-irt/config"
	"sapsan-irt/core/utils"
)

//go:embed migrations
var migrationsFS embed.FS

// ApplyMigrations brings the schema up to date using the embedded goose
// migrations for the configured dialect.
func ApplyMigrations(ctx context.Context, cfg *config.AppConfig, db *DB, logger *utils.Logger) error {
	dialect := GooseDialect(cfg)
	dir := "migrations/sqlite"
	if dialect == "postgres" {
		dir = "migrations/postgres"
	}
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return err
	}
	logger.Printf("DB migrations applied dialect=%s", dialect)
	return nil
}
