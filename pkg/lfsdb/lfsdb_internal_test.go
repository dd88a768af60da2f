package lfsdb

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestPrepareStmtSharesOneStatementAcrossGoroutines(t *testing.T) {
	db, err := Open(t.Context(), filepath.Join(t.TempDir(), "lfs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	const query = `SELECT oid FROM lfs_objects WHERE oid = ?`
	const workers = 16
	stmts := make([]*sqlx.Stmt, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stmt, err := db.prepareStmt(t.Context(), query)
			if err == nil {
				stmts[i] = stmt
			}
		}()
	}
	wg.Wait()

	cached, ok := db.preparedStmts.Peek(query)
	require.True(t, ok)
	require.Equal(t, 1, db.preparedStmts.Len())
	for i, stmt := range stmts {
		require.Same(t, cached, stmt, "worker %d got a statement other than the cached one", i)
	}

	var oids []string
	require.NoError(t, cached.SelectContext(t.Context(), &oids, "missing"))
	require.Empty(t, oids)
}
