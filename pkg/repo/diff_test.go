package repo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/odvcencio/got-lfs/pkg/object"
)

func commitFiles(t *testing.T, r *Repo, files map[string][]byte, parents ...object.Hash) object.Hash {
	t.Helper()
	tree, err := r.WriteFiles(files)
	if err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	c, err := r.CommitTree(tree, parents, "tester <t@example.com>", "snapshot\n")
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	return c
}

func collectDiff(t *testing.T, r *Repo, oldrev, newrev string) []string {
	t.Helper()
	var out []string
	for cb, err := range r.DiffBlobs(context.Background(), oldrev, newrev) {
		if err != nil {
			t.Fatalf("DiffBlobs(%q, %q): %v", oldrev, newrev, err)
		}
		out = append(out, cb.Status.String()+" "+cb.Path)
	}
	sort.Strings(out)
	return out
}

func TestDiffBlobsFromEmptyTree(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := commitFiles(t, r, map[string][]byte{
		"a.txt":     []byte("a"),
		"dir/b.txt": []byte("b"),
	})

	for _, oldrev := range []string{string(object.EmptyTreeHash), string(object.ZeroHash), ""} {
		got := collectDiff(t, r, oldrev, string(c))
		want := []string{"added a.txt", "added dir/b.txt"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("oldrev %q: diff = %v, want %v", oldrev, got, want)
		}
	}
}

func TestDiffBlobsReportsAddedAndModifiedOnly(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c1 := commitFiles(t, r, map[string][]byte{
		"keep.txt":        []byte("same"),
		"change.txt":      []byte("v1"),
		"gone.txt":        []byte("bye"),
		"stable/deep.txt": []byte("deep"),
		"swap":            []byte("file first"),
	})
	c2 := commitFiles(t, r, map[string][]byte{
		"keep.txt":        []byte("same"),
		"change.txt":      []byte("v2"),
		"stable/deep.txt": []byte("deep"),
		"new/nested.txt":  []byte("n"),
		"swap/inner.txt":  []byte("dir now"),
	}, c1)

	got := collectDiff(t, r, string(c1), string(c2))
	want := []string{"added new/nested.txt", "added swap/inner.txt", "modified change.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("diff = %v, want %v", got, want)
	}
}

func TestDiffBlobsIdenticalRevisions(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := commitFiles(t, r, map[string][]byte{"a": []byte("a")})
	if got := collectDiff(t, r, string(c), string(c)); len(got) != 0 {
		t.Fatalf("diff of identical revisions = %v", got)
	}
}

func TestDiffBlobsResolvesRefsAndTrees(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	tree, err := r.WriteFiles(map[string][]byte{"x": []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	c, err := r.CommitTree(tree, nil, "tester", "m")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateRef("refs/heads/main", c); err != nil {
		t.Fatal(err)
	}
	if got := collectDiff(t, r, "", "main"); len(got) != 1 {
		t.Fatalf("diff via ref = %v", got)
	}
	if got := collectDiff(t, r, "", string(tree)); len(got) != 1 {
		t.Fatalf("diff via tree = %v", got)
	}
}

func TestDiffBlobsUnknownRevision(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	missing := string(object.HashBytes([]byte("missing")))
	var gotErr error
	for _, err := range r.DiffBlobs(context.Background(), "", missing) {
		gotErr = err
	}
	if !errors.Is(gotErr, ErrUnknownRevision) {
		t.Fatalf("error = %v, want ErrUnknownRevision", gotErr)
	}
}

func TestDiffBlobsStopsEarly(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := commitFiles(t, r, map[string][]byte{"a": []byte("a"), "b": []byte("b"), "c/d": []byte("d")})
	n := 0
	for _, err := range r.DiffBlobs(context.Background(), "", string(c)) {
		if err != nil {
			t.Fatal(err)
		}
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iterated %d times, want 1", n)
	}
}

func TestDiffBlobsHonoursCancellation(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := commitFiles(t, r, map[string][]byte{"a": []byte("a")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	for _, err := range r.DiffBlobs(ctx, "", string(c)) {
		gotErr = err
	}
	if !errors.Is(gotErr, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", gotErr)
	}
}

func TestResolveTreeRejectsBlob(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte("blob")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ResolveTree(string(h)); err == nil {
		t.Fatal("ResolveTree(blob) should fail")
	}
}

func TestIsNullRevision(t *testing.T) {
	for _, rev := range []string{"", "  ", string(object.ZeroHash)} {
		if !IsNullRevision(rev) {
			t.Errorf("IsNullRevision(%q) = false", rev)
		}
	}
	if IsNullRevision(string(object.EmptyTreeHash)) {
		t.Error("empty tree is not the null revision")
	}
}
