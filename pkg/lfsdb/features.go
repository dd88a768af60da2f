package lfsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/odvcencio/got-lfs/pkg/integrity"
)

// SetFeature records a per-project large file override.
func (d *DB) SetFeature(ctx context.Context, project string, enabled bool) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO lfs_features (project, enabled) VALUES (?, ?)
		ON CONFLICT (project) DO UPDATE SET enabled = excluded.enabled`,
		project, enabled,
	)
	if err != nil {
		return fmt.Errorf("set feature for %s: %w", project, err)
	}
	return nil
}

// Feature returns project's override; ok is false when none is recorded.
func (d *DB) Feature(ctx context.Context, project string) (enabled, ok bool, err error) {
	err = d.db.GetContext(ctx, &enabled, `SELECT enabled FROM lfs_features WHERE project = ?`, project)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("feature for %s: %w", project, err)
	}
	return enabled, true, nil
}

// FeatureToggle answers from recorded overrides, deferring to fallback for
// projects without one.
func (d *DB) FeatureToggle(fallback integrity.FeatureToggle) integrity.FeatureToggle {
	return integrity.ToggleFunc(func(ctx context.Context, project string) (bool, error) {
		enabled, ok, err := d.Feature(ctx, project)
		if err != nil {
			return false, err
		}
		if !ok {
			return fallback.EnabledFor(ctx, project)
		}
		return enabled, nil
	})
}
