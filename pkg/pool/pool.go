// Package pool resolves the object stores a repository may draw large
// objects from.
package pool

import (
	"context"
	"fmt"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/presence"
)

// ParentLookup reports the repository whose deduplicated object pool a
// repository shares, if any.
type ParentLookup interface {
	PoolParentOf(ctx context.Context, repoID string) (parent string, ok bool, err error)
}

// Resolver orders the stores consulted for a repository: its own store
// first, then its pool parent's. Resolution is a single hop; the parent's
// own parent is never consulted.
type Resolver struct {
	lookup ParentLookup
}

// NewResolver returns a Resolver. A nil lookup resolves every repository
// to its own store only.
func NewResolver(lookup ParentLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Stores returns the non-empty, ordered store list for repoID.
func (r *Resolver) Stores(ctx context.Context, repoID string) ([]presence.StoreID, error) {
	repoID = strings.TrimSpace(repoID)
	if repoID == "" {
		return nil, fmt.Errorf("resolve stores: repository id is required")
	}
	stores := []presence.StoreID{presence.StoreID(repoID)}
	if r.lookup == nil {
		return stores, nil
	}

	parent, ok, err := r.lookup.PoolParentOf(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("resolve stores for %s: %w", repoID, err)
	}
	parent = strings.TrimSpace(parent)
	if ok && parent != "" && parent != repoID {
		stores = append(stores, presence.StoreID(parent))
	}
	return stores, nil
}

// StaticParents is a ParentLookup backed by a fixed child -> parent map.
type StaticParents map[string]string

// PoolParentOf implements ParentLookup.
func (s StaticParents) PoolParentOf(ctx context.Context, repoID string) (string, bool, error) {
	parent, ok := s[repoID]
	return parent, ok, nil
}
