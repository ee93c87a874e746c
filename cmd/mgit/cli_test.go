package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/mgit/pkg/object"
)

func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore cwd %s: %v", wd, err)
		}
	})
}

// runCLI executes one mgit invocation and returns its standard output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "mgit %s\n%s", strings.Join(args, " "), out)
	return out
}

// newCLIRepo initializes a repository in a temp dir and makes it the
// working directory.
func newCLIRepo(t *testing.T, initArgs ...string) string {
	t.Helper()
	dir := t.TempDir()
	chdirForTest(t, dir)
	args := append([]string{"init", "--name", "CLI Tester", "--email", "cli@example.com"}, initArgs...)
	mustRun(t, args...)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCLICommitLogStatus(t *testing.T) {
	dir := newCLIRepo(t)
	writeFile(t, filepath.Join(dir, "README"), "hello\n")
	writeFile(t, filepath.Join(dir, "src", "main.go"), "package main\n")

	out := mustRun(t, "status")
	assert.Contains(t, out, "no commits yet")
	assert.Contains(t, out, "untracked:")

	mustRun(t, "add", ".")
	out = mustRun(t, "status", "--short")
	assert.Equal(t, "A  README\nA  src/main.go\n", out)

	out = mustRun(t, "commit", "-m", "initial import\n\nwith a body")
	assert.True(t, strings.HasPrefix(out, "[main "), out)
	assert.Contains(t, out, "] initial import")

	out = mustRun(t, "status")
	assert.Contains(t, out, "on main at ")
	assert.NotContains(t, out, "staged:")

	out = mustRun(t, "log")
	assert.Contains(t, out, "(HEAD -> main)")
	assert.Contains(t, out, "Author: CLI Tester <cli@example.com>")
	assert.Contains(t, out, "    with a body")

	out = mustRun(t, "log", "--oneline")
	assert.Equal(t, 1, strings.Count(out, "\n"))

	_, err := runCLI(t, "commit")
	assert.Error(t, err, "commit without -m")
}

func TestCLIPlumbing(t *testing.T) {
	dir := newCLIRepo(t)
	writeFile(t, filepath.Join(dir, "hello.txt"), "hello world")

	out := mustRun(t, "hash-object", "hello.txt")
	assert.Equal(t, "95d09f2b10159347eece71399a7e2e907ea3df4f\n", out)
	_, err := runCLI(t, "cat-file", "-p", "95d09f2b10159347eece71399a7e2e907ea3df4f")
	assert.Error(t, err, "hash-object without -w must not store")

	mustRun(t, "hash-object", "-w", "hello.txt")
	assert.Equal(t, "blob\n", mustRun(t, "cat-file", "-t", "95d0"))
	assert.Equal(t, "11\n", mustRun(t, "cat-file", "-s", "95d09f2b"))
	assert.Equal(t, "hello world", mustRun(t, "cat-file", "-p", "95d09f2b"))

	writeFile(t, filepath.Join(dir, "dir", "nested.txt"), "nested")
	tree := strings.TrimSpace(mustRun(t, "write-tree"))
	require.True(t, object.Hash(tree).Valid(), tree)

	out = mustRun(t, "ls-tree", tree)
	assert.Contains(t, out, "40000 tree ")
	assert.Contains(t, out, "\tdir\n")
	out = mustRun(t, "ls-tree", "-r", tree)
	assert.Contains(t, out, "\tdir/nested.txt\n")
	assert.Contains(t, out, "\thello.txt\n")

	mustRun(t, "add", ".")
	mustRun(t, "commit", "-m", "snapshot")
	assert.Equal(t, "nested", mustRun(t, "cat-file", "-p", "HEAD:dir/nested.txt"))
	assert.Equal(t, "tree\n", mustRun(t, "cat-file", "-t", "HEAD:dir"))
}

func TestCLIMergeConflictExitsNonZero(t *testing.T) {
	dir := newCLIRepo(t)
	writeFile(t, filepath.Join(dir, "f"), "base\n")
	mustRun(t, "add", "f")
	mustRun(t, "commit", "-m", "base")

	mustRun(t, "checkout", "-b", "feature")
	writeFile(t, filepath.Join(dir, "f"), "theirs\n")
	mustRun(t, "add", "f")
	mustRun(t, "commit", "-m", "theirs")

	mustRun(t, "checkout", "main")
	writeFile(t, filepath.Join(dir, "f"), "ours\n")
	mustRun(t, "add", "f")
	mustRun(t, "commit", "-m", "ours")

	out, err := runCLI(t, "merge", "feature")
	require.True(t, errors.Is(err, errMergeConflicts), "err = %v", err)
	assert.Contains(t, out, "CONFLICT (both-modified): f")

	_, err = runCLI(t, "merge", "--ff-only", "feature")
	assert.Error(t, err)

	out = mustRun(t, "merge", "-X", "theirs", "feature")
	assert.Contains(t, out, "resolved (both-modified) using theirs: f\n")
	assert.Contains(t, out, "created merge commit")
	data, err := os.ReadFile(filepath.Join(dir, "f"))
	require.NoError(t, err)
	assert.Equal(t, "theirs\n", string(data))

	out = mustRun(t, "merge", "feature")
	assert.Equal(t, "already up to date\n", out)

	feature := strings.TrimSpace(mustRun(t, "log", "-n", "1", "--oneline", "feature"))
	base := strings.TrimSpace(mustRun(t, "merge-base", "main", "feature"))
	assert.True(t, strings.HasPrefix(base, strings.Fields(feature)[0]), "merge-base = %s, feature = %s", base, feature)
	mustRun(t, "merge-base", "--is-ancestor", "feature", "main")
	_, err = runCLI(t, "merge-base", "--is-ancestor", "main", "feature")
	assert.Error(t, err)
}

func TestCLIPackUnpackVerify(t *testing.T) {
	src := newCLIRepo(t, "--compression", "zstd")
	writeFile(t, filepath.Join(src, "a.txt"), strings.Repeat("a", 4096))
	mustRun(t, "add", "a.txt")
	mustRun(t, "commit", "-m", "one")

	out := mustRun(t, "pack", "--reachable")
	assert.Contains(t, out, "packed 3 object(s) into objects/pack/pack-")
	packs, err := filepath.Glob(filepath.Join(src, ".mgit", "objects", "pack", "*.mpk"))
	require.NoError(t, err)
	require.Len(t, packs, 1)

	out = mustRun(t, "verify")
	assert.Contains(t, out, "ok: verified 3 loose object(s)")
	assert.Contains(t, out, "1 pack archive(s)")

	// Payloads keep the source codec, so a zlib repository cannot take them.
	newCLIRepo(t)
	_, err = runCLI(t, "unpack", packs[0])
	assert.True(t, errors.Is(err, object.ErrInvalidFormat), "err = %v", err)

	newCLIRepo(t, "--compression", "zstd")
	out = mustRun(t, "unpack", packs[0])
	assert.Contains(t, out, "unpacked 3 new object(s)")

	blob := object.HashObject(object.TypeBlob, []byte(strings.Repeat("a", 4096)))
	assert.Equal(t, strings.Repeat("a", 4096), mustRun(t, "cat-file", "-p", string(blob)))
	assert.Contains(t, mustRun(t, "verify"), "ok: verified 3 loose object(s)")
}

func TestCLISignedCommit(t *testing.T) {
	dir := newCLIRepo(t)
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "mgit test")
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600))

	writeFile(t, filepath.Join(dir, "a"), "1")
	mustRun(t, "add", "a")
	mustRun(t, "commit", "-m", "signed", "--sign="+keyPath)

	out := mustRun(t, "verify-commit")
	assert.Contains(t, out, "good signature on ")
	assert.Contains(t, out, "SHA256:")

	writeFile(t, filepath.Join(dir, "b"), "2")
	mustRun(t, "add", "b")
	mustRun(t, "commit", "-m", "unsigned")
	_, err = runCLI(t, "verify-commit")
	assert.True(t, errors.Is(err, errUnsignedCommit), "err = %v", err)
}

func TestVerifyCommitSignatureRejectsTampering(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	keyPath := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600))

	signer, resolved, err := newSSHCommitSigner(keyPath)
	require.NoError(t, err)
	assert.Equal(t, keyPath, resolved)

	c := &object.CommitObj{
		TreeHash:  object.EmptyTreeHash,
		Author:    "A <a@example.com> 1 +0000",
		Committer: "A <a@example.com> 1 +0000",
		Message:   "original",
	}
	c.Signature, err = signer(object.CommitSigningPayload(c))
	require.NoError(t, err)
	_, err = verifyCommitSignature(c)
	require.NoError(t, err)

	c.Message = "tampered"
	_, err = verifyCommitSignature(c)
	assert.Error(t, err)
}

func TestSplitIdentity(t *testing.T) {
	name, when := splitIdentity("Ada Lovelace <ada@example.com> 1700000000 +0200")
	assert.Equal(t, "Ada Lovelace <ada@example.com>", name)
	assert.True(t, when.Equal(time.Unix(1_700_000_000, 0)))
	_, offset := when.Zone()
	assert.Equal(t, 2*60*60, offset)

	name, when = splitIdentity("free form")
	assert.Equal(t, "free form", name)
	assert.True(t, when.IsZero())
}

func TestCLIDiff(t *testing.T) {
	dir := newCLIRepo(t)
	writeFile(t, filepath.Join(dir, "a.txt"), "one\ntwo\n")
	mustRun(t, "add", "a.txt")
	mustRun(t, "commit", "-m", "init")

	assert.Empty(t, mustRun(t, "diff"))

	writeFile(t, filepath.Join(dir, "a.txt"), "one\n2\n")
	out := mustRun(t, "diff")
	assert.Contains(t, out, "--- a/a.txt\n+++ b/a.txt\n")
	assert.Contains(t, out, "-two\n+2\n")

	assert.Empty(t, mustRun(t, "diff", "--staged"))
	mustRun(t, "add", "a.txt")
	assert.Empty(t, mustRun(t, "diff"))
	out = mustRun(t, "diff", "--cached", "-U", "0")
	assert.Contains(t, out, "@@ -2 +2 @@\n-two\n+2\n")
}
