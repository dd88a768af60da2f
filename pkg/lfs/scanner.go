package lfs

import (
	"bytes"
	"context"
	"fmt"
	"iter"

	logging "github.com/ipfs/go-log/v2"

	"github.com/odvcencio/got-lfs/pkg/object"
	"github.com/odvcencio/got-lfs/pkg/repo"
)

var log = logging.Logger("lfs")

// BlobSource is the repository surface the scanner reads. *repo.Repo
// implements it.
type BlobSource interface {
	DiffBlobs(ctx context.Context, oldrev, newrev string) iter.Seq2[repo.ChangedBlob, error]
	BlobSize(h object.Hash) (int64, error)
	ReadBlob(h object.Hash) ([]byte, error)
}

var _ BlobSource = (*repo.Repo)(nil)

// Scanner finds the pointers a revision range introduces.
type Scanner struct {
	source BlobSource
}

// NewScanner returns a Scanner reading from source.
func NewScanner(source BlobSource) *Scanner {
	return &Scanner{source: source}
}

// Scan yields a Pointer for every added or modified file between oldrev and
// newrev whose content is a valid pointer. Files that are not pointers are
// skipped. A pointer reachable from several paths is yielded once per path.
//
// Each call walks the diff afresh; the returned sequence is single-pass. A
// repository failure ends the sequence with a non-nil error.
func (s *Scanner) Scan(ctx context.Context, oldrev, newrev string) iter.Seq2[Pointer, error] {
	return func(yield func(Pointer, error) bool) {
		// Blob hash -> parsed pointer, nil when the blob is not a pointer.
		seen := make(map[object.Hash]*Pointer)

		for changed, err := range s.source.DiffBlobs(ctx, oldrev, newrev) {
			if err != nil {
				yield(Pointer{}, err)
				return
			}

			p, ok := seen[changed.Hash]
			if !ok {
				p, err = s.inspect(changed.Hash)
				if err != nil {
					yield(Pointer{}, fmt.Errorf("scan %s: %w", changed.Path, err))
					return
				}
				seen[changed.Hash] = p
			}
			if p == nil {
				continue
			}

			found := *p
			found.Path = changed.Path
			if !yield(found, nil) {
				return
			}
		}
	}
}

// Pointers drains Scan into a slice.
func (s *Scanner) Pointers(ctx context.Context, oldrev, newrev string) ([]Pointer, error) {
	var out []Pointer
	for p, err := range s.Scan(ctx, oldrev, newrev) {
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Scanner) inspect(h object.Hash) (*Pointer, error) {
	size, err := s.source.BlobSize(h)
	if err != nil {
		return nil, err
	}
	if size > MaxPointerSize {
		return nil, nil
	}
	data, err := s.source.ReadBlob(h)
	if err != nil {
		return nil, err
	}
	p, err := ParsePointer(data)
	if err != nil {
		if bytes.HasPrefix(data, []byte("version ")) {
			log.Debugw("skipping malformed pointer", "blob", h, "err", err)
		}
		return nil, nil
	}
	return &p, nil
}
