package lfs

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"sort"
	"strings"
	"testing"

	"github.com/odvcencio/got-lfs/pkg/object"
	"github.com/odvcencio/got-lfs/pkg/repo"
)

const otherOID = "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

func testRepo(t *testing.T) *repo.Repo {
	t.Helper()
	r, err := repo.Init(t.TempDir())
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}
	return r
}

func commit(t *testing.T, r *repo.Repo, files map[string][]byte, parents ...object.Hash) string {
	t.Helper()
	tree, err := r.WriteFiles(files)
	if err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	c, err := r.CommitTree(tree, parents, "tester", "m")
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	return string(c)
}

func TestScanInitialPush(t *testing.T) {
	r := testRepo(t)
	newrev := commit(t, r, map[string][]byte{
		"files/lfs/object.iso": Pointer{OID: testOID, Size: 133169152}.Encode(),
		"README.md":            []byte("# readme\n"),
		"big.bin":              bytes.Repeat([]byte("version "), 512),
	})

	pointers, err := NewScanner(r).Pointers(context.Background(), string(object.EmptyTreeHash), newrev)
	if err != nil {
		t.Fatalf("Pointers: %v", err)
	}
	if len(pointers) != 1 {
		t.Fatalf("found %d pointers, want 1: %+v", len(pointers), pointers)
	}
	p := pointers[0]
	if p.OID != testOID || p.Size != 133169152 || p.Path != "files/lfs/object.iso" {
		t.Fatalf("pointer = %+v", p)
	}
}

func TestScanOnlyChangedFiles(t *testing.T) {
	r := testRepo(t)
	old := commit(t, r, map[string][]byte{
		"a.bin": Pointer{OID: testOID, Size: 1}.Encode(),
	})
	newrev := commit(t, r, map[string][]byte{
		"a.bin": Pointer{OID: testOID, Size: 1}.Encode(),
		"b.bin": Pointer{OID: otherOID, Size: 2}.Encode(),
	}, object.Hash(old))

	pointers, err := NewScanner(r).Pointers(context.Background(), old, newrev)
	if err != nil {
		t.Fatalf("Pointers: %v", err)
	}
	if len(pointers) != 1 || pointers[0].OID != otherOID {
		t.Fatalf("pointers = %+v, want only %s", pointers, otherOID)
	}
}

func TestScanYieldsDuplicatesPerPath(t *testing.T) {
	r := testRepo(t)
	ptr := Pointer{OID: testOID, Size: 10}.Encode()
	newrev := commit(t, r, map[string][]byte{"one.bin": ptr, "dir/two.bin": ptr})

	pointers, err := NewScanner(r).Pointers(context.Background(), "", newrev)
	if err != nil {
		t.Fatalf("Pointers: %v", err)
	}
	var paths []string
	for _, p := range pointers {
		if p.OID != testOID {
			t.Fatalf("unexpected oid %s", p.OID)
		}
		paths = append(paths, p.Path)
	}
	sort.Strings(paths)
	if strings.Join(paths, ",") != "dir/two.bin,one.bin" {
		t.Fatalf("paths = %v", paths)
	}
}

func TestScanIsFreshPerCall(t *testing.T) {
	r := testRepo(t)
	newrev := commit(t, r, map[string][]byte{"a.bin": Pointer{OID: testOID, Size: 1}.Encode()})
	s := NewScanner(r)
	for i := 0; i < 2; i++ {
		pointers, err := s.Pointers(context.Background(), "", newrev)
		if err != nil {
			t.Fatal(err)
		}
		if len(pointers) != 1 {
			t.Fatalf("call %d: %d pointers", i, len(pointers))
		}
	}
}

type failingSource struct {
	err error
}

func (f failingSource) DiffBlobs(ctx context.Context, oldrev, newrev string) iter.Seq2[repo.ChangedBlob, error] {
	return func(yield func(repo.ChangedBlob, error) bool) {
		yield(repo.ChangedBlob{Path: "a", Hash: object.HashBytes([]byte("a"))}, nil)
	}
}

func (f failingSource) BlobSize(h object.Hash) (int64, error) { return 0, f.err }

func (f failingSource) ReadBlob(h object.Hash) ([]byte, error) { return nil, f.err }

func TestScanPropagatesReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := NewScanner(failingSource{err: boom}).Pointers(context.Background(), "", "x")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}
