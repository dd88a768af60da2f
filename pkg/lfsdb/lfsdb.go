// Package lfsdb is the relational presence index: which large objects each
// project holds, which project's pool a fork shares, and per-project
// feature overrides. It runs on SQLite.
package lfsdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var log = logging.Logger("lfsdb")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DriverName is the database/sql driver the package registers with.
const DriverName = "sqlite"

// DefaultPreparedStmtCacheSize bounds the number of cached statements.
// Batched lookups produce one statement per distinct batch width.
const DefaultPreparedStmtCacheSize = 64

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// DB wraps a migrated SQLite database.
type DB struct {
	db            *sqlx.DB
	preparedStmts *lru.Cache[string, *sqlx.Stmt]
}

// Open opens (creating if needed) the SQLite database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	sqlDB, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database at %s: %w", path, err)
	}
	// modernc sqlite serialises writers; one connection avoids lock waits.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configure sqlite database: %w", err)
	}
	if err := Migrate(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return New(sqlDB)
}

// New wraps an already migrated database.
func New(sqlDB *sql.DB) (*DB, error) {
	cache, err := lru.NewWithEvict(DefaultPreparedStmtCacheSize, func(key string, stmt *sqlx.Stmt) {
		stmt.Close()
	})
	if err != nil {
		return nil, err
	}
	return &DB{db: sqlx.NewDb(sqlDB, DriverName), preparedStmts: cache}, nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		log.Infow("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Close releases cached statements and closes the database.
func (d *DB) Close() error {
	d.preparedStmts.Purge()
	return d.db.Close()
}

func (d *DB) prepareStmt(ctx context.Context, query string) (*sqlx.Stmt, error) {
	if stmt, ok := d.preparedStmts.Get(query); ok {
		return stmt, nil
	}
	stmt, err := d.db.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	// Concurrent callers may prepare the same query; keep the first cached
	// statement and close the duplicate.
	if cached, ok, _ := d.preparedStmts.PeekOrAdd(query, stmt); ok {
		stmt.Close()
		return cached, nil
	}
	return stmt, nil
}
