// Package dbtest provides SQLite-backed databases for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go-retail-backoffice/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens a private in-memory SQLite database and migrates models.
// One connection keeps the in-memory database alive and shared.
func New(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", sanitize(t.Name()), time.Now().UnixNano())
	return open(t, dsn, models)
}

// NewFile opens a SQLite database in a temporary file. Use it when the
// driver may discard the pooled connection, e.g. when a context expires
// mid-transaction, which would drop an in-memory database.
func NewFile(t testing.TB, models ...interface{}) *gorm.DB {
	t.Helper()
	return open(t, filepath.Join(t.TempDir(), sanitize(t.Name())+".db"), models)
}

func open(t testing.TB, dsn string, models []interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get test pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// TxOptions are generous enough for a single-connection SQLite pool.
var TxOptions = database.TxOptions{MaxWait: 2 * time.Second, Timeout: 10 * time.Second}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
