package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/odvcencio/got-lfs/pkg/object"
)

// CommitTree writes a commit pointing at tree with the given parents and
// returns its hash. It does not move any ref.
func (r *Repo) CommitTree(tree object.Hash, parents []object.Hash, author, message string) (object.Hash, error) {
	if !tree.Valid() {
		return "", fmt.Errorf("commit: invalid tree hash %q", tree)
	}
	author = strings.TrimSpace(author)
	if author == "" {
		return "", fmt.Errorf("commit: author is required")
	}
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return h, nil
}
