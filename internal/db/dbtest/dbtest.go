// Package dbtest opens throwaway in-memory SQLite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"askhub/internal/config"
	"askhub/internal/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a migrated database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name, seq.Add(1))

	gdb, err := db.Open(config.DatabaseConfig{Driver: db.DriverSQLite, URL: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	if err := db.Migrate(context.Background(), gdb, zap.NewNop()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}
