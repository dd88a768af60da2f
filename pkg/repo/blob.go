package repo

import (
	"fmt"

	"github.com/odvcencio/got-lfs/pkg/object"
)

// BlobSize returns the content length of blob h without reading its
// content.
func (r *Repo) BlobSize(h object.Hash) (int64, error) {
	objType, size, err := r.Store.Stat(h)
	if err != nil {
		return 0, err
	}
	if objType != object.TypeBlob {
		return 0, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, object.TypeBlob)
	}
	return size, nil
}

// ReadBlob returns the content of blob h.
func (r *Repo) ReadBlob(h object.Hash) ([]byte, error) {
	b, err := r.Store.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}
