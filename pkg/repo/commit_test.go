package repo

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/mgit/pkg/object"
)

func TestCommitRequiresStagedFiles(t *testing.T) {
	r, _ := newTestRepo(t)
	_, err := r.Commit("empty", "")
	assert.True(t, errors.Is(err, ErrNothingStaged), "err = %v", err)
}

func TestCommitChainsParents(t *testing.T) {
	r, _ := newTestRepo(t)
	c1 := commitWork(t, r, "first", map[string]string{"a": "1"})
	c2 := commitWork(t, r, "second", map[string]string{"a": "2"})

	first, err := r.Store.ReadCommit(c1)
	require.NoError(t, err)
	assert.Empty(t, first.Parents)

	second, err := r.Store.ReadCommit(c2)
	require.NoError(t, err)
	assert.Equal(t, []object.Hash{c1}, second.Parents)

	head, err := r.ResolveRef("main")
	require.NoError(t, err)
	assert.Equal(t, c2, head)
}

func TestCommitIdentity(t *testing.T) {
	r, _ := newTestRepo(t)
	h := commitWork(t, r, "msg", map[string]string{"a": "1"})
	c, err := r.Store.ReadCommit(h)
	require.NoError(t, err)

	want := FormatIdentity("Test Author", "test@example.com", testEpoch)
	assert.Equal(t, want, c.Committer)
	assert.Equal(t, want, c.Author)

	writeWorkFile(t, r, "b", "2")
	require.NoError(t, r.Add([]string{"b"}))
	h2, err := r.Commit("by someone else", "Other <other@example.com> 1 +0000")
	require.NoError(t, err)
	c2, err := r.Store.ReadCommit(h2)
	require.NoError(t, err)
	assert.Equal(t, "Other <other@example.com> 1 +0000", c2.Author)
	assert.Equal(t, want, c2.Committer)
}

func TestCommitIsDeterministic(t *testing.T) {
	r1, _ := newTestRepo(t)
	r2, _ := newTestRepo(t)
	files := map[string]string{"a/b": "x", "c": "y"}
	assert.Equal(t, commitWork(t, r1, "same", files), commitWork(t, r2, "same", files))
}

func TestCommitWithSigner(t *testing.T) {
	r, _ := newTestRepo(t)
	writeWorkFile(t, r, "a", "1")
	require.NoError(t, r.Add([]string{"a"}))

	var signed []byte
	h, err := r.CommitWithSigner("signed", "", func(payload []byte) (string, error) {
		signed = append([]byte(nil), payload...)
		return "sig-bytes", nil
	})
	require.NoError(t, err)

	c, err := r.Store.ReadCommit(h)
	require.NoError(t, err)
	assert.Equal(t, "sig-bytes", c.Signature)
	assert.Equal(t, object.CommitSigningPayload(c), signed)
}

func TestCommitSignerFailureLeavesRefs(t *testing.T) {
	r, _ := newTestRepo(t)
	writeWorkFile(t, r, "a", "1")
	require.NoError(t, r.Add([]string{"a"}))

	_, err := r.CommitWithSigner("signed", "", func([]byte) (string, error) {
		return "", errors.New("no key")
	})
	require.Error(t, err)
	head, err := r.HeadCommit()
	require.NoError(t, err)
	assert.Empty(t, head)
}

func TestCommitOnDetachedHead(t *testing.T) {
	r, _ := newTestRepo(t)
	c1 := commitWork(t, r, "first", map[string]string{"a": "1"})
	require.NoError(t, r.Checkout(string(c1)))

	c2 := commitWork(t, r, "detached", map[string]string{"a": "2"})
	head, err := r.Head()
	require.NoError(t, err)
	assert.Equal(t, string(c2), head)

	main, err := r.ResolveRef("main")
	require.NoError(t, err)
	assert.Equal(t, c1, main, "branch must not move while detached")
}

func TestLog(t *testing.T) {
	r, _ := newTestRepo(t)
	var hashes []object.Hash
	for _, content := range []string{"1", "2", "3"} {
		hashes = append(hashes, commitWork(t, r, "commit "+content, map[string]string{"f": content}))
	}

	all, err := r.Log(hashes[2], 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, e := range all {
		assert.Equal(t, hashes[2-i], e.Hash)
	}
	assert.True(t, strings.HasPrefix(all[0].Commit.Message, "commit 3"))

	limited, err := r.Log(hashes[2], 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := r.Log("", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
