package repo

import (
	"context"
	"fmt"
	"iter"
	"path"

	"github.com/odvcencio/got-lfs/pkg/object"
)

// ChangeStatus classifies a file reported by DiffBlobs.
type ChangeStatus int

const (
	StatusAdded ChangeStatus = iota
	StatusModified
)

func (s ChangeStatus) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusModified:
		return "modified"
	default:
		return fmt.Sprintf("ChangeStatus(%d)", int(s))
	}
}

// ChangedBlob is a file whose content in the new tree is not present at the
// same path in the old tree.
type ChangedBlob struct {
	Path   string
	Hash   object.Hash
	Status ChangeStatus
}

// DiffBlobs yields every file that was added or whose content changed
// between the trees of oldrev and newrev. Only the two endpoint trees are
// compared; history between them is never walked, and identical subtrees
// are skipped without being read. Deleted files are not reported.
//
// The sequence is lazy and single-pass. Resolution or read failures are
// yielded as the error of the final pair.
func (r *Repo) DiffBlobs(ctx context.Context, oldrev, newrev string) iter.Seq2[ChangedBlob, error] {
	return func(yield func(ChangedBlob, error) bool) {
		oldTree, err := r.ResolveTree(oldrev)
		if err != nil {
			yield(ChangedBlob{}, fmt.Errorf("diff blobs: old revision: %w", err))
			return
		}
		newTree, err := r.ResolveTree(newrev)
		if err != nil {
			yield(ChangedBlob{}, fmt.Errorf("diff blobs: new revision: %w", err))
			return
		}
		w := &treeDiffWalker{ctx: ctx, store: r.Store, yield: yield}
		if _, err := w.diff(oldTree, newTree, ""); err != nil {
			yield(ChangedBlob{}, fmt.Errorf("diff blobs: %w", err))
		}
	}
}

type treeDiffWalker struct {
	ctx   context.Context
	store *object.Store
	yield func(ChangedBlob, error) bool
}

// diff compares two trees and reports whether the consumer wants more.
func (w *treeDiffWalker) diff(oldHash, newHash object.Hash, prefix string) (bool, error) {
	if oldHash == newHash {
		return true, nil
	}
	if err := w.ctx.Err(); err != nil {
		return false, err
	}

	oldEntries := make(map[string]object.TreeEntry)
	if oldHash != "" {
		oldTree, err := w.store.ReadTree(oldHash)
		if err != nil {
			return false, fmt.Errorf("read tree %s: %w", oldHash, err)
		}
		for _, e := range oldTree.Entries {
			oldEntries[e.Name] = e
		}
	}
	newTree, err := w.store.ReadTree(newHash)
	if err != nil {
		return false, fmt.Errorf("read tree %s: %w", newHash, err)
	}

	for _, ne := range newTree.Entries {
		if err := w.ctx.Err(); err != nil {
			return false, err
		}
		fullPath := path.Join(prefix, ne.Name)
		oe, existed := oldEntries[ne.Name]

		if ne.IsDir {
			base := object.Hash("")
			if existed && oe.IsDir {
				base = oe.SubtreeHash
			}
			more, err := w.diff(base, ne.SubtreeHash, fullPath)
			if err != nil || !more {
				return more, err
			}
			continue
		}

		status := StatusAdded
		if existed && !oe.IsDir {
			if oe.BlobHash == ne.BlobHash {
				continue
			}
			status = StatusModified
		}
		if !w.yield(ChangedBlob{Path: fullPath, Hash: ne.BlobHash, Status: status}, nil) {
			return false, nil
		}
	}
	return true, nil
}
