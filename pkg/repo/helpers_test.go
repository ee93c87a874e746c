package repo

import (
	"testing"
	"time"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

var testEpoch = time.Unix(1_700_000_000, 0).UTC()

// testConfig pins the identity so commit hashes do not depend on the
// environment.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.User = UserConfig{Name: "Test Author", Email: "test@example.com"}
	return cfg
}

// newTestRepo returns a repository on in-memory filesystems with a fixed
// clock.
func newTestRepo(t *testing.T) (*Repo, *vfs.Mem) {
	t.Helper()
	work := vfs.NewMem()
	r, err := InitFS(work, vfs.NewMem(), testConfig(), WithClock(func() time.Time { return testEpoch }))
	if err != nil {
		t.Fatalf("InitFS: %v", err)
	}
	return r, work
}

// newDiskRepo initializes a repository in a temporary directory.
func newDiskRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), testConfig(), WithClock(func() time.Time { return testEpoch }))
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func writeWorkFile(t *testing.T, r *Repo, path, content string) {
	t.Helper()
	if err := r.Work.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readWorkFile(t *testing.T, r *Repo, path string) string {
	t.Helper()
	data, err := r.Work.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// commitWork writes files, stages them and commits.
func commitWork(t *testing.T, r *Repo, msg string, files map[string]string) object.Hash {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p, content := range files {
		writeWorkFile(t, r, p, content)
		paths = append(paths, p)
	}
	if err := r.Add(paths); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h, err := r.Commit(msg, "")
	if err != nil {
		t.Fatalf("Commit(%q): %v", msg, err)
	}
	return h
}

// writeTestCommit stores a commit over the empty tree without touching refs.
func writeTestCommit(t *testing.T, r *Repo, msg string, parents ...object.Hash) object.Hash {
	t.Helper()
	tree, err := Project(r.Store, nil)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    FormatIdentity("Test Author", "test@example.com", testEpoch),
		Committer: FormatIdentity("Test Author", "test@example.com", testEpoch),
		Message:   msg,
	})
	if err != nil {
		t.Fatalf("WriteCommit(%q): %v", msg, err)
	}
	return h
}
