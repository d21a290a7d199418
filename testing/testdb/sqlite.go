package testdb

import (
	"testing"

	"institute-service/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewSQLite opens a private in-memory database with foreign keys enforced.
// It is closed when the test ends.
func NewSQLite(t *testing.T) *bun.DB {
	t.Helper()

	database, err := db.NewSQLite(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Close()
	})
	return database
}
