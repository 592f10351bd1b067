// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"kpitracker/internal/platform/db"
)

// SQLite returns a migrated database in a fresh temporary file.
func SQLite(t testing.TB) *db.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "kpitracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(h.Close)
	if err := db.Migrate(ctx, h); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return h
}
