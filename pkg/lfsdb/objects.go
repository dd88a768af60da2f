package lfsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/odvcencio/got-lfs/pkg/presence"
)

// maxBatch keeps IN lists well under SQLite's bound-variable limit.
const maxBatch = 500

var _ presence.Recorder = (*DB)(nil)

type objectRow struct {
	OID  string `db:"oid"`
	Size int64  `db:"size"`
}

// ExistsBatch returns the oids recorded for project store. Large batches
// are split into chunks that share a prepared statement.
func (d *DB) ExistsBatch(ctx context.Context, store presence.StoreID, oids []string) (presence.Set, error) {
	present := make(presence.Set)
	for start := 0; start < len(oids); start += maxBatch {
		chunk := oids[start:min(start+maxBatch, len(oids))]

		query, args, err := sqlx.In(
			`SELECT oid FROM lfs_objects_projects WHERE project = ? AND oid IN (?)`,
			string(store), chunk,
		)
		if err != nil {
			return nil, fmt.Errorf("exists batch: build query: %w", err)
		}
		stmt, err := d.prepareStmt(ctx, d.db.Rebind(query))
		if err != nil {
			return nil, fmt.Errorf("exists batch: prepare: %w", err)
		}
		var found []string
		if err := stmt.SelectContext(ctx, &found, args...); err != nil {
			return nil, fmt.Errorf("exists batch for %s: %w", store, err)
		}
		for _, oid := range found {
			present[oid] = struct{}{}
		}
	}
	return present, nil
}

// AddObjects records objects as present for project store, creating the
// shared object rows as needed.
func (d *DB) AddObjects(ctx context.Context, store presence.StoreID, objects []presence.Object) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add objects: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, o := range objects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lfs_objects (oid, size, created_at) VALUES (?, ?, ?)
			ON CONFLICT (oid) DO NOTHING`,
			o.OID, o.Size, now,
		); err != nil {
			return fmt.Errorf("add object %s: %w", o.OID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lfs_objects_projects (project, oid, created_at) VALUES (?, ?, ?)
			ON CONFLICT (project, oid) DO NOTHING`,
			string(store), o.OID, now,
		); err != nil {
			return fmt.Errorf("link object %s to %s: %w", o.OID, store, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add objects: commit: %w", err)
	}
	log.Debugw("recorded objects", "project", store, "count", len(objects))
	return nil
}

// ListObjects returns the objects recorded for project store, ordered by
// oid.
func (d *DB) ListObjects(ctx context.Context, store presence.StoreID) ([]presence.Object, error) {
	var rows []objectRow
	err := d.db.SelectContext(ctx, &rows,
		`SELECT o.oid, o.size
		FROM lfs_objects o
		INNER JOIN lfs_objects_projects p ON p.oid = o.oid
		WHERE p.project = ?
		ORDER BY o.oid`,
		string(store),
	)
	if err != nil {
		return nil, fmt.Errorf("list objects for %s: %w", store, err)
	}
	out := make([]presence.Object, 0, len(rows))
	for _, r := range rows {
		out = append(out, presence.Object{OID: r.OID, Size: r.Size})
	}
	return out, nil
}

// RemoveObjects unlinks oids from project store. Shared object rows are
// kept for other projects.
func (d *DB) RemoveObjects(ctx context.Context, store presence.StoreID, oids []string) error {
	for start := 0; start < len(oids); start += maxBatch {
		chunk := oids[start:min(start+maxBatch, len(oids))]
		query, args, err := sqlx.In(
			`DELETE FROM lfs_objects_projects WHERE project = ? AND oid IN (?)`,
			string(store), chunk,
		)
		if err != nil {
			return fmt.Errorf("remove objects: build query: %w", err)
		}
		if _, err := d.db.ExecContext(ctx, d.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("remove objects from %s: %w", store, err)
		}
	}
	return nil
}
