// Package testdb opens throwaway presence databases for tests.
package testdb

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odvcencio/got-lfs/pkg/lfsdb"
)

// CreateTestDB opens a migrated SQLite database in a temporary directory.
// It is closed when the test ends.
func CreateTestDB(t *testing.T) *lfsdb.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), fmt.Sprintf("testdb_%d.db", time.Now().UnixNano()))
	db, err := lfsdb.Open(t.Context(), path)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		db.Close()
	})
	return db
}
