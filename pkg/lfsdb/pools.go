package lfsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/pool"
)

var _ pool.ParentLookup = (*DB)(nil)

// PoolParentOf implements pool.ParentLookup from the fork_networks table.
func (d *DB) PoolParentOf(ctx context.Context, project string) (string, bool, error) {
	var parent string
	err := d.db.GetContext(ctx, &parent, `SELECT pool_parent FROM fork_networks WHERE project = ?`, project)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pool parent of %s: %w", project, err)
	}
	return parent, true, nil
}

// SetPoolParent records that project shares parent's object pool.
func (d *DB) SetPoolParent(ctx context.Context, project, parent string) error {
	project = strings.TrimSpace(project)
	parent = strings.TrimSpace(parent)
	if project == "" || parent == "" {
		return fmt.Errorf("set pool parent: project and parent are required")
	}
	if project == parent {
		return fmt.Errorf("set pool parent: %s cannot be its own pool parent", project)
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO fork_networks (project, pool_parent) VALUES (?, ?)
		ON CONFLICT (project) DO UPDATE SET pool_parent = excluded.pool_parent`,
		project, parent,
	)
	if err != nil {
		return fmt.Errorf("set pool parent of %s: %w", project, err)
	}
	return nil
}

// ClearPoolParent removes project's pool relationship, if any.
func (d *DB) ClearPoolParent(ctx context.Context, project string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM fork_networks WHERE project = ?`, project); err != nil {
		return fmt.Errorf("clear pool parent of %s: %w", project, err)
	}
	return nil
}
