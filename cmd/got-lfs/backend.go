package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/odvcencio/got-lfs/pkg/integrity"
	"github.com/odvcencio/got-lfs/pkg/lfsdb"
	"github.com/odvcencio/got-lfs/pkg/pool"
	"github.com/odvcencio/got-lfs/pkg/presence"
	"github.com/odvcencio/got-lfs/pkg/presence/badgerindex"
	"github.com/odvcencio/got-lfs/pkg/remote"
	"github.com/odvcencio/got-lfs/pkg/repo"
)

const (
	backendSQLite = "sqlite"
	backendBadger = "badger"
	backendRemote = "remote"
)

var errNeedSQLite = errors.New("this command requires the sqlite index backend")

// backend is the opened presence index plus, for sqlite, the database that
// also stores fork relationships and feature overrides.
type backend struct {
	index presence.Recorder
	db    *lfsdb.DB
	close func() error
}

func (b *backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func (a *app) openBackend(ctx context.Context) (*backend, error) {
	cfg := a.cfg.Index
	switch cfg.Backend {
	case backendSQLite, "":
		db, err := lfsdb.Open(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return &backend{index: db, db: db, close: db.Close}, nil
	case backendBadger:
		idx, err := badgerindex.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &backend{index: idx, close: idx.Close}, nil
	case backendRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote index backend: index.url is not set")
		}
		c, err := remote.NewClient(cfg.URL, remote.ClientOptions{Token: cfg.Token})
		if err != nil {
			return nil, err
		}
		return &backend{index: c}, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// parentLookup prefers the fork table and falls back to configured parents.
func (a *app) parentLookup(b *backend) pool.ParentLookup {
	if b.db != nil {
		return b.db
	}
	return pool.StaticParents(a.cfg.Pool.Parents)
}

func (a *app) serverToggle(b *backend) integrity.FeatureToggle {
	static := integrity.StaticToggle{Default: a.cfg.LFS.Enabled}
	if len(a.cfg.LFS.Disabled) > 0 {
		static.Overrides = make(map[string]bool, len(a.cfg.LFS.Disabled))
		for _, id := range a.cfg.LFS.Disabled {
			static.Overrides[id] = false
		}
	}
	if b.db != nil {
		return b.db.FeatureToggle(static)
	}
	return static
}

// newGate wires the check for pushes into r. A repository can opt out in its
// own config even when the server enables it.
func (a *app) newGate(b *backend, r *repo.Repo) *integrity.Gate {
	toggle := integrity.AllToggles(
		a.serverToggle(b),
		repo.ConfigToggle{Repo: r, Default: true},
	)
	return integrity.NewGate(toggle, pool.NewResolver(a.parentLookup(b)), presence.NewChecker(b.index))
}
