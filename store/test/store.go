// Package test provides store test helpers backed by a throwaway SQLite
// database.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/wonderai/wonderchat/internal/profile"
	"github.com/wonderai/wonderchat/store"
	"github.com/wonderai/wonderchat/store/db"
)

// NewTestingStore creates a migrated store on a fresh SQLite database under
// the test's temp directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	p := &profile.Profile{
		Mode:    "dev",
		Data:    dir,
		Driver:  "sqlite",
		DSN:     filepath.Join(dir, "wonderchat_test.db"),
		Version: "test",
	}

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(driver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
