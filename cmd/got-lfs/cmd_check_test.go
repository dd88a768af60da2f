package main

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/got-lfs/pkg/object"
	"github.com/odvcencio/got-lfs/pkg/presence"
	"github.com/odvcencio/got-lfs/pkg/remote"
)

func TestCheckCmdRejectsMissingObjects(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{
		"big.bin":   pointerFile(oidA, 100),
		"other.bin": pointerFile(oidB, 200),
		"README":    []byte("hello\n"),
	})
	if _, err := f.run(t, "", "objects", "add", "--project", "app", oidA+":100"); err != nil {
		t.Fatalf("objects add: %v", err)
	}

	out, err := f.run(t, "", "check", string(object.EmptyTreeHash), string(c), "--repo", f.r.RootDir, "--project", "app")
	if !errors.Is(err, errMissingObjects) {
		t.Fatalf("check error = %v, want errMissingObjects\noutput:\n%s", err, out)
	}
	if !strings.Contains(out, "missing "+oidB) || strings.Contains(out, oidA) {
		t.Fatalf("check output = %q, want only %s reported", out, oidB)
	}
	if err.Error() != `LFS objects are missing. Ensure LFS is properly set up or try a manual "git lfs push --all".` {
		t.Fatalf("rejection message = %q", err.Error())
	}
}

func TestCheckCmdPassesWhenAllObjectsStored(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	if _, err := f.run(t, "", "objects", "add", "--project", "app", oidA); err != nil {
		t.Fatalf("objects add: %v", err)
	}

	out, err := f.run(t, "", "check", string(object.ZeroHash), string(c), "--repo", f.r.RootDir, "--project", "app")
	if err != nil {
		t.Fatalf("check: %v\noutput:\n%s", err, out)
	}
	if out != "" {
		t.Fatalf("check output = %q, want empty", out)
	}
}

func TestCheckCmdDefaultsProjectToRepositoryName(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	if _, err := f.run(t, "", "objects", "add", "--project", "app", oidA); err != nil {
		t.Fatalf("objects add: %v", err)
	}
	if out, err := f.run(t, "", "check", "", string(c), "--repo", f.r.RootDir); err != nil {
		t.Fatalf("check: %v\noutput:\n%s", err, out)
	}
}

func TestCheckCmdUsesPoolParent(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	if _, err := f.run(t, "", "objects", "add", "--project", "upstream", oidA); err != nil {
		t.Fatalf("objects add: %v", err)
	}

	if _, err := f.run(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "app"); !errors.Is(err, errMissingObjects) {
		t.Fatalf("check before fork = %v, want errMissingObjects", err)
	}
	if _, err := f.run(t, "", "fork", "set", "app", "upstream"); err != nil {
		t.Fatalf("fork set: %v", err)
	}
	if out, err := f.run(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "app"); err != nil {
		t.Fatalf("check after fork: %v\noutput:\n%s", err, out)
	}
}

func TestCheckCmdOnlyConsidersRange(t *testing.T) {
	f := newCLIFixture(t)
	base := f.commit(t, map[string][]byte{"old.bin": pointerFile(oidA, 1)})
	next := f.commit(t, map[string][]byte{
		"old.bin": pointerFile(oidA, 1),
		"README":  []byte("docs\n"),
	}, base)

	if out, err := f.run(t, "", "check", string(base), string(next), "--repo", f.r.RootDir, "--project", "app"); err != nil {
		t.Fatalf("check: %v\noutput:\n%s", err, out)
	}
}

func TestCheckCmdDeletionPasses(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	for _, newrev := range []string{"-", string(object.ZeroHash)} {
		if out, err := f.run(t, "", "check", string(c), newrev, "--repo", f.r.RootDir, "--project", "app"); err != nil {
			t.Fatalf("check deletion %q: %v\noutput:\n%s", newrev, err, out)
		}
	}
}

func TestCheckCmdHonoursFeatureOverrides(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	check := func() error {
		_, err := f.run(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "app")
		return err
	}

	if _, err := f.run(t, "", "feature", "disable", "app"); err != nil {
		t.Fatalf("feature disable: %v", err)
	}
	if err := check(); err != nil {
		t.Fatalf("check with project disabled: %v", err)
	}
	if _, err := f.run(t, "", "feature", "enable", "app"); err != nil {
		t.Fatalf("feature enable: %v", err)
	}
	if err := check(); !errors.Is(err, errMissingObjects) {
		t.Fatalf("check with project enabled = %v, want errMissingObjects", err)
	}

	if _, err := f.run(t, "", "feature", "disable", "--local", "--repo", f.r.RootDir); err != nil {
		t.Fatalf("feature disable --local: %v", err)
	}
	if err := check(); err != nil {
		t.Fatalf("check with repository disabled: %v", err)
	}
	out, err := f.run(t, "", "feature", "status", "--repo", f.r.RootDir, "--project", "app")
	if err != nil {
		t.Fatalf("feature status: %v", err)
	}
	if !strings.Contains(out, "app: disabled (server on, repository off)") {
		t.Fatalf("feature status output = %q", out)
	}
}

func TestCheckCmdUnknownRevision(t *testing.T) {
	f := newCLIFixture(t)
	if _, err := f.run(t, "", "check", "", "refs/heads/nope", "--repo", f.r.RootDir, "--project", "app"); err == nil {
		t.Fatal("expected error for unknown revision")
	}
}

func TestPreReceiveCmd(t *testing.T) {
	f := newCLIFixture(t)
	clean := f.commit(t, map[string][]byte{"README": []byte("hi\n")})
	dirty := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidB, 5)}, clean)
	zero := string(object.ZeroHash)

	stdin := zero + " " + string(clean) + " refs/heads/main\n" +
		string(clean) + " " + zero + " refs/heads/old\n"
	if out, err := f.run(t, stdin, "pre-receive", "--repo", f.r.RootDir, "--project", "app"); err != nil {
		t.Fatalf("pre-receive clean: %v\noutput:\n%s", err, out)
	}

	stdin = zero + " " + string(clean) + " refs/heads/main\n" +
		string(clean) + " " + string(dirty) + " refs/heads/topic\n"
	out, err := f.run(t, stdin, "pre-receive", "--repo", f.r.RootDir, "--project", "app")
	if !errors.Is(err, errMissingObjects) {
		t.Fatalf("pre-receive dirty = %v, want errMissingObjects", err)
	}
	if !strings.Contains(out, "missing "+oidB) {
		t.Fatalf("pre-receive output = %q", out)
	}

	if _, err := f.run(t, "garbage\n", "pre-receive", "--repo", f.r.RootDir, "--project", "app"); err == nil {
		t.Fatal("expected error for malformed update line")
	}
}

func TestCheckCmdWithConfigFileAndBadgerBackend(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	badgerDir := filepath.Join(f.dir, "badger")
	cfgPath := filepath.Join(f.dir, "got-lfs.toml")
	cfg := "[index]\nbackend = \"badger\"\npath = \"" + filepath.ToSlash(badgerDir) + "\"\n\n" +
		"[lfs]\ndisabled = [\"legacy\"]\n\n" +
		"[pool.parents]\napp = \"upstream\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "", "objects", "add", "--project", "upstream", oidA, "--config", cfgPath); err != nil {
		t.Fatalf("objects add: %v", err)
	}
	if out, err := runCLI(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "app", "--config", cfgPath); err != nil {
		t.Fatalf("check through pool parent: %v\noutput:\n%s", err, out)
	}
	if _, err := runCLI(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "other", "--config", cfgPath); !errors.Is(err, errMissingObjects) {
		t.Fatalf("check without parent = %v, want errMissingObjects", err)
	}
	if _, err := runCLI(t, "", "check", "", string(c), "--repo", f.r.RootDir, "--project", "legacy", "--config", cfgPath); err != nil {
		t.Fatalf("check for disabled project: %v", err)
	}
}

func TestCheckCmdRemoteBackend(t *testing.T) {
	f := newCLIFixture(t)
	c := f.commit(t, map[string][]byte{"big.bin": pointerFile(oidA, 100)})
	srv := httptest.NewServer(remote.NewHandler(presence.NewMemIndex(), remote.HandlerOptions{}))
	defer srv.Close()

	args := []string{"--index-backend", "remote", "--index-url", srv.URL}
	if _, err := runCLI(t, "", append([]string{"objects", "add", "--project", "app", oidA + ":100"}, args...)...); err != nil {
		t.Fatalf("objects add: %v", err)
	}
	out, err := runCLI(t, "", append([]string{"check", "", string(c), "--repo", f.r.RootDir, "--project", "app"}, args...)...)
	if err != nil {
		t.Fatalf("check: %v\noutput:\n%s", err, out)
	}
}
