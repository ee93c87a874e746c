package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusByPath(t *testing.T, r *Repo) map[string]StatusEntry {
	t.Helper()
	entries, err := r.Status()
	require.NoError(t, err)
	out := make(map[string]StatusEntry, len(entries))
	for _, e := range entries {
		out[e.Path] = e
	}
	return out
}

func TestStatusCleanAfterCommit(t *testing.T) {
	r, _ := newTestRepo(t)
	commitWork(t, r, "init", map[string]string{"a": "1", "dir/b": "2"})
	assert.Empty(t, statusByPath(t, r))
}

func TestStatusReportsEveryState(t *testing.T) {
	r, _ := newTestRepo(t)
	commitWork(t, r, "init", map[string]string{
		"modified":       "1",
		"deleted-staged": "2",
		"deleted-work":   "3",
		"stays":          "4",
	})

	writeWorkFile(t, r, "modified", "changed")
	require.NoError(t, r.Remove([]string{"deleted-staged"}, false))
	require.NoError(t, r.Work.Remove("deleted-work"))
	writeWorkFile(t, r, "added", "new")
	require.NoError(t, r.Add([]string{"added"}))
	writeWorkFile(t, r, "untracked", "?")

	got := statusByPath(t, r)
	want := map[string]StatusEntry{
		"modified":       {Path: "modified", IndexStatus: StatusClean, WorkStatus: StatusModified},
		"deleted-staged": {Path: "deleted-staged", IndexStatus: StatusDeleted, WorkStatus: StatusClean},
		"deleted-work":   {Path: "deleted-work", IndexStatus: StatusClean, WorkStatus: StatusDeleted},
		"added":          {Path: "added", IndexStatus: StatusNew, WorkStatus: StatusClean},
		"untracked":      {Path: "untracked", IndexStatus: StatusUntracked, WorkStatus: StatusUntracked},
	}
	assert.Equal(t, want, got)
}

func TestStatusStagedModification(t *testing.T) {
	r, _ := newTestRepo(t)
	commitWork(t, r, "init", map[string]string{"a": "1"})
	writeWorkFile(t, r, "a", "2")
	require.NoError(t, r.Add([]string{"a"}))
	writeWorkFile(t, r, "a", "3")

	e := statusByPath(t, r)["a"]
	assert.Equal(t, StatusModified, e.IndexStatus)
	assert.Equal(t, StatusModified, e.WorkStatus)
}

func TestStatusSkipsIgnoredFiles(t *testing.T) {
	r, _ := newTestRepo(t)
	writeWorkFile(t, r, IgnoreFileName, "*.tmp\n")
	writeWorkFile(t, r, "scratch.tmp", "x")
	writeWorkFile(t, r, "keep.txt", "y")

	got := statusByPath(t, r)
	assert.Contains(t, got, "keep.txt")
	assert.Contains(t, got, IgnoreFileName)
	assert.NotContains(t, got, "scratch.tmp")
}

func TestStatusSorted(t *testing.T) {
	r, _ := newTestRepo(t)
	for _, p := range []string{"z", "a", "m/n"} {
		writeWorkFile(t, r, p, p)
	}
	entries, err := r.Status()
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"a", "m/n", "z"}, paths)
}

func TestFileStatusCodes(t *testing.T) {
	assert.Equal(t, byte('A'), StatusNew.Code())
	assert.Equal(t, byte('M'), StatusModified.Code())
	assert.Equal(t, byte('D'), StatusDeleted.Code())
	assert.Equal(t, byte('?'), StatusUntracked.Code())
	assert.Equal(t, byte(' '), StatusClean.Code())
	assert.Equal(t, "new file", StatusNew.String())
}
