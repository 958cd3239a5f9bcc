// Package testdb opens migrated, seeded SQLite databases for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medivault/m/internal/database"
	"medivault/m/internal/migrations"
	"medivault/m/internal/seed"
)

// Now is the fixed clock used across tests.
var Now = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

// Clock returns Now.
func Clock() time.Time { return Now }

// Day formats Now shifted by offset days as an ISO date.
func Day(offset int) string {
	return Now.AddDate(0, 0, offset).Format("2006-01-02")
}

// Open returns a migrated database file under t.TempDir with the default categories seeded.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medivault_test.db")
	db, err := database.Connect("file:" + path + "?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, migrations.Run(ctx, db, zap.NewNop()))
	_, err = seed.Categories(ctx, db)
	require.NoError(t, err)
	return db
}

// Count runs a COUNT query.
func Count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}
