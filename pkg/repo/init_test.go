package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitCreatesStructure(t *testing.T) {
	dir := t.TempDir()

	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init(%q): %v", dir, err)
	}
	if r.RootDir != dir {
		t.Errorf("RootDir = %q, want %q", r.RootDir, dir)
	}
	gotDir := filepath.Join(dir, ".got")
	if r.GotDir != gotDir {
		t.Errorf("GotDir = %q, want %q", r.GotDir, gotDir)
	}
	for _, d := range []string{gotDir, filepath.Join(gotDir, "objects"), filepath.Join(gotDir, "refs", "heads")} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", d, err)
		}
	}
	if r.Store == nil {
		t.Error("Store is nil after Init")
	}
}

func TestInitExistingRepoError(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init should fail")
	}
}

func TestOpenFindsRepoFromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	r, err := Open(sub)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.GotDir != filepath.Join(dir, ".got") {
		t.Fatalf("GotDir = %q", r.GotDir)
	}
}

func TestOpenOutsideRepoFails(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open outside a repository should fail")
	}
}
