package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/mgit/pkg/object"
)

func TestCheckoutSwitchesBranch(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"shared.txt": "v1", "only-main.txt": "main"})
	if err := r.CreateBranch("feature", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout feature: %v", err)
	}
	if err := r.Remove([]string{"only-main.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	commitWork(t, r, "feature work", map[string]string{"shared.txt": "v2", "dir/feature.txt": "f"})

	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout main: %v", err)
	}
	if got := readWorkFile(t, r, "shared.txt"); got != "v1" {
		t.Fatalf("shared.txt = %q, want v1", got)
	}
	if got := readWorkFile(t, r, "only-main.txt"); got != "main" {
		t.Fatalf("only-main.txt = %q", got)
	}
	if ok, _ := r.Work.Exists("dir/feature.txt"); ok {
		t.Fatal("feature file survived checkout of main")
	}
	if ok, _ := r.Work.Exists("dir"); ok {
		t.Fatal("empty directory survived checkout")
	}
	if branch, _ := r.CurrentBranch(); branch != "main" {
		t.Fatalf("current branch = %q", branch)
	}
	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status) != 0 {
		t.Fatalf("status after checkout = %+v, want clean", status)
	}
}

func TestCheckoutRefusesDirtyWorkTree(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"a": "1"})
	if err := r.CreateBranch("other", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	writeWorkFile(t, r, "a", "edited")

	if err := r.Checkout("other"); !errors.Is(err, ErrDirtyWorkTree) {
		t.Fatalf("Checkout error = %v, want ErrDirtyWorkTree", err)
	}
	if got := readWorkFile(t, r, "a"); got != "edited" {
		t.Fatalf("working file changed to %q", got)
	}
}

func TestCheckoutAllowsUnrelatedUntrackedFile(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"a": "1"})
	if err := r.CreateBranch("other", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	writeWorkFile(t, r, "notes.txt", "scratch")
	if err := r.Checkout("other"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if got := readWorkFile(t, r, "notes.txt"); got != "scratch" {
		t.Fatalf("untracked file = %q", got)
	}
}

func TestCheckoutRefusesUntrackedOverwrite(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"a": "1"})
	if err := r.CreateBranch("feature", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	commitWork(t, r, "add b", map[string]string{"b": "tracked"})
	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout main: %v", err)
	}

	writeWorkFile(t, r, "b", "precious")
	if err := r.Checkout("feature"); !errors.Is(err, ErrUntrackedOverwrite) {
		t.Fatalf("Checkout error = %v, want ErrUntrackedOverwrite", err)
	}
	if got := readWorkFile(t, r, "b"); got != "precious" {
		t.Fatalf("untracked file overwritten with %q", got)
	}
	if branch, _ := r.CurrentBranch(); branch != "main" {
		t.Fatalf("HEAD moved to %q", branch)
	}
}

func TestCheckoutDetached(t *testing.T) {
	r, _ := newTestRepo(t)
	c1 := commitWork(t, r, "one", map[string]string{"f": "1"})
	commitWork(t, r, "two", map[string]string{"f": "2"})

	if err := r.Checkout(c1.Short()); err != nil {
		t.Fatalf("Checkout prefix: %v", err)
	}
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if object.Hash(head) != c1 {
		t.Fatalf("HEAD = %q, want detached %s", head, c1)
	}
	if got := readWorkFile(t, r, "f"); got != "1" {
		t.Fatalf("f = %q, want 1", got)
	}
	if branch, _ := r.CurrentBranch(); branch != "" {
		t.Fatalf("CurrentBranch = %q, want detached", branch)
	}
}

func TestCheckoutUnknownTarget(t *testing.T) {
	r, _ := newTestRepo(t)
	commitWork(t, r, "one", map[string]string{"f": "1"})
	if err := r.Checkout("nope"); !errors.Is(err, ErrUnknownRevision) {
		t.Fatalf("Checkout error = %v, want ErrUnknownRevision", err)
	}
}

func TestCheckoutRestoresExecutableMode(t *testing.T) {
	r := newDiskRepo(t)
	script := filepath.Join(r.RootDir, "run.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := r.Add([]string{"run.sh"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c1, err := r.Commit("script", "")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.Remove([]string{"run.sh"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	writeWorkFile(t, r, "other", "x")
	if err := r.Add([]string{"other"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("drop script", ""); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := r.Checkout(string(c1)); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	info, err := os.Stat(script)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("run.sh mode = %v, want executable", info.Mode())
	}
	if _, err := os.Stat(filepath.Join(r.RootDir, "other")); !os.IsNotExist(err) {
		t.Fatalf("other should be removed, stat err = %v", err)
	}
}

func TestCheckoutKeepsFrameLikeContent(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"f.txt": "base"})
	if err := r.CreateBranch("side", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("side"); err != nil {
		t.Fatalf("Checkout side: %v", err)
	}
	const framed = "blob 5\x00hello"
	commitWork(t, r, "framed", map[string]string{"f.txt": framed})
	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout main: %v", err)
	}
	commitWork(t, r, "other", map[string]string{"f.txt": "changed"})

	if err := r.Checkout("side"); err != nil {
		t.Fatalf("Checkout side: %v", err)
	}
	if got := readWorkFile(t, r, "f.txt"); got != framed {
		t.Fatalf("f.txt = %q, want %q", got, framed)
	}
}

func TestCheckoutMissingBlobChangesNothing(t *testing.T) {
	r, _ := newTestRepo(t)
	base := commitWork(t, r, "base", map[string]string{"a.txt": "1", "c.txt": "c"})
	if err := r.CreateBranch("side", base); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := r.Checkout("side"); err != nil {
		t.Fatalf("Checkout side: %v", err)
	}
	if err := r.Remove([]string{"c.txt"}, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	commitWork(t, r, "side", map[string]string{"a.txt": "side"})
	if err := r.Checkout("main"); err != nil {
		t.Fatalf("Checkout main: %v", err)
	}

	lost := object.HashObject(object.TypeBlob, []byte("side"))
	if err := r.Meta.Remove("objects/" + string(lost[:2]) + "/" + string(lost[2:])); err != nil {
		t.Fatalf("remove blob: %v", err)
	}
	indexBefore, err := r.Meta.ReadFile("index")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}

	err = r.Checkout("side")
	if !errors.Is(err, object.ErrObjectNotFound) {
		t.Fatalf("Checkout err = %v, want ErrObjectNotFound", err)
	}
	if got := readWorkFile(t, r, "a.txt"); got != "1" {
		t.Errorf("a.txt = %q, want 1", got)
	}
	if got := readWorkFile(t, r, "c.txt"); got != "c" {
		t.Errorf("c.txt = %q, want c", got)
	}
	indexAfter, err := r.Meta.ReadFile("index")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if string(indexAfter) != string(indexBefore) {
		t.Errorf("index changed:\n%s\nwant\n%s", indexAfter, indexBefore)
	}
	if branch, _ := r.CurrentBranch(); branch != "main" {
		t.Errorf("current branch = %q", branch)
	}
	status, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(status) != 0 {
		t.Errorf("status = %+v, want clean", status)
	}
}
