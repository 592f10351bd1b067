package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded migrations for the handle's dialect.
func Migrate(ctx context.Context, h *Handle) error {
	var (
		sqlDB   *sql.DB
		dialect goose.Dialect
		dir     string
	)
	switch h.Dialect {
	case DialectPostgres:
		sqlDB = stdlib.OpenDBFromPool(h.Pool)
		defer sqlDB.Close()
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case DialectSQLite:
		var err error
		if sqlDB, err = h.Gorm.DB(); err != nil {
			return err
		}
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return fmt.Errorf("no migrations for dialect %q", h.Dialect)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, sqlDB, sub)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		zap.L().Info("migration applied",
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration))
	}
	return nil
}
