package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/got-lfs/pkg/object"
)

// ErrUnknownRevision is returned when a revision names no object or ref.
var ErrUnknownRevision = errors.New("unknown revision")

// IsNullRevision reports whether rev denotes "no revision": an empty string
// or the all-zero hash. As a push's new value it marks a ref deletion.
func IsNullRevision(rev string) bool {
	return object.Hash(strings.TrimSpace(rev)).IsZero()
}

// ResolveTree resolves rev to a tree hash. rev may be a commit hash, a tree
// hash or a ref name. The empty-tree sentinel and the null revision both
// resolve to object.EmptyTreeHash.
func (r *Repo) ResolveTree(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if IsNullRevision(rev) || object.Hash(rev) == object.EmptyTreeHash {
		return object.EmptyTreeHash, nil
	}

	h := object.Hash(rev)
	if !h.Valid() {
		resolved, err := r.ResolveRef(rev)
		if err != nil {
			return "", err
		}
		if !resolved.Valid() {
			return "", fmt.Errorf("resolve %q: ref points at malformed hash %q", rev, resolved)
		}
		h = resolved
	}

	objType, _, err := r.Store.Stat(h)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return "", fmt.Errorf("resolve %q: %w", rev, ErrUnknownRevision)
		}
		return "", fmt.Errorf("resolve %q: %w", rev, err)
	}
	switch objType {
	case object.TypeTree:
		return h, nil
	case object.TypeCommit:
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", rev, err)
		}
		return c.TreeHash, nil
	default:
		return "", fmt.Errorf("resolve %q: %s is a %s, not a commit or tree", rev, h, objType)
	}
}
