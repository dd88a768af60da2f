// Package integrity decides whether a push references large objects that
// no reachable store holds yet.
package integrity

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/odvcencio/got-lfs/pkg/lfs"
	"github.com/odvcencio/got-lfs/pkg/presence"
	"github.com/odvcencio/got-lfs/pkg/repo"
)

var log = logging.Logger("lfs/integrity")

// RejectionMessage is shown to the pusher when objects are missing.
const RejectionMessage = `LFS objects are missing. Ensure LFS is properly set up or try a manual "git lfs push --all".`

// StoreResolver orders the stores a repository may draw objects from.
// *pool.Resolver implements it.
type StoreResolver interface {
	Stores(ctx context.Context, repoID string) ([]presence.StoreID, error)
}

// MissingFinder reports oids held by none of a list of stores.
// *presence.Checker implements it.
type MissingFinder interface {
	Missing(ctx context.Context, oids []string, stores []presence.StoreID) ([]string, error)
}

// Target is the repository receiving a push.
type Target struct {
	ID    string
	Blobs lfs.BlobSource
}

// Gate runs the missing object check for pushes.
type Gate struct {
	toggle   FeatureToggle
	resolver StoreResolver
	finder   MissingFinder
}

// NewGate returns a Gate. A nil toggle enables every repository.
func NewGate(toggle FeatureToggle, resolver StoreResolver, finder MissingFinder) *Gate {
	if toggle == nil {
		toggle = StaticToggle{Default: true}
	}
	return &Gate{toggle: toggle, resolver: resolver, finder: finder}
}

// HasMissingObjects reports whether the push of oldrev..newrev to target
// references large objects absent from every store reachable by target. A
// true result means the push must be rejected.
func (g *Gate) HasMissingObjects(ctx context.Context, target Target, oldrev, newrev string) (bool, error) {
	missing, err := g.MissingObjects(ctx, target, oldrev, newrev)
	if err != nil {
		return false, err
	}
	return len(missing) > 0, nil
}

// MissingObjects returns the sorted oids HasMissingObjects bases its answer
// on. It returns nil without reading the repository when the feature is off
// for target, and without querying any store when newrev deletes the ref or
// the range adds no pointers.
func (g *Gate) MissingObjects(ctx context.Context, target Target, oldrev, newrev string) ([]string, error) {
	enabled, err := g.toggle.EnabledFor(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("integrity check %s: feature toggle: %w", target.ID, err)
	}
	if !enabled {
		log.Debugw("skipping integrity check, feature disabled", "repo", target.ID)
		return nil, nil
	}
	if repo.IsNullRevision(newrev) {
		log.Debugw("skipping integrity check, ref deletion", "repo", target.ID)
		return nil, nil
	}

	var oids []string
	for p, err := range lfs.NewScanner(target.Blobs).Scan(ctx, oldrev, newrev) {
		if err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", target.ID, err)
		}
		oids = append(oids, p.OID)
	}
	if len(oids) == 0 {
		return nil, nil
	}

	stores, err := g.resolver.Stores(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("integrity check %s: %w", target.ID, err)
	}
	missing, err := g.finder.Missing(ctx, oids, stores)
	if err != nil {
		return nil, fmt.Errorf("integrity check %s: %w", target.ID, err)
	}
	log.Debugw("integrity check complete", "repo", target.ID, "pointers", len(oids), "missing", len(missing))
	return missing, nil
}
