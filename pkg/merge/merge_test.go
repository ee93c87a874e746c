package merge

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
)

// mapOf builds a path→entry map where each value is the content whose hash
// the entry carries.
func mapOf(kv map[string]string) map[string]index.Entry {
	out := make(map[string]index.Entry, len(kv))
	for p, content := range kv {
		out[p] = index.Entry{Mode: object.TreeModeFile, Path: p, Hash: object.HashBytes([]byte(content))}
	}
	return out
}

func hashesOf(m map[string]index.Entry) map[string]object.Hash {
	out := make(map[string]object.Hash, len(m))
	for p, e := range m {
		out[p] = e.Hash
	}
	return out
}

func TestMergeNoConflict(t *testing.T) {
	base := mapOf(map[string]string{"a": "A"})
	ours := mapOf(map[string]string{"a": "AO", "b": "B"})
	theirs := mapOf(map[string]string{"a": "A", "c": "C"})

	res := Merge(base, ours, theirs)
	require.True(t, res.Clean())
	assert.Empty(t, res.ConflictPaths())
	assert.Equal(t, hashesOf(mapOf(map[string]string{"a": "AO", "b": "B", "c": "C"})), hashesOf(res.Merged))
	assert.Equal(t, Stats{TotalPaths: 3, OursModified: 1, Added: 2}, res.Stats)
}

func TestMergeConflict(t *testing.T) {
	base := mapOf(map[string]string{"a": "A"})
	ours := mapOf(map[string]string{"a": "AO"})
	theirs := mapOf(map[string]string{"a": "AT"})

	res := Merge(base, ours, theirs)
	require.False(t, res.Clean())
	assert.Equal(t, []string{"a"}, res.ConflictPaths())
	assert.NotContains(t, res.Merged, "a")

	c := res.Conflicts[0]
	assert.Equal(t, BothModified, c.Kind)
	require.NotNil(t, c.Base)
	require.NotNil(t, c.Ours)
	require.NotNil(t, c.Theirs)
	assert.Equal(t, base["a"].Hash, c.Base.Hash)
	assert.Equal(t, ours["a"].Hash, c.Ours.Hash)
	assert.Equal(t, theirs["a"].Hash, c.Theirs.Hash)
}

func TestMergeDeletions(t *testing.T) {
	base := mapOf(map[string]string{"gone-both": "x", "gone-ours": "y", "gone-theirs": "z", "edit-vs-del": "w"})
	ours := mapOf(map[string]string{"gone-theirs": "z", "edit-vs-del": "w2"})
	theirs := mapOf(map[string]string{"gone-ours": "y"})

	res := Merge(base, ours, theirs)
	assert.Empty(t, res.Merged)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "edit-vs-del", res.Conflicts[0].Path)
	assert.Equal(t, ModifyDelete, res.Conflicts[0].Kind)
	assert.Nil(t, res.Conflicts[0].Theirs)
	assert.Equal(t, 3, res.Stats.Deleted)
}

func TestMergeConflictsSortedByPath(t *testing.T) {
	base := mapOf(map[string]string{})
	ours := mapOf(map[string]string{"z": "1", "m": "1", "a": "1"})
	theirs := mapOf(map[string]string{"z": "2", "m": "2", "a": "2"})

	res := Merge(base, ours, theirs)
	assert.Equal(t, []string{"a", "m", "z"}, res.ConflictPaths())
	for _, c := range res.Conflicts {
		assert.Equal(t, BothAdded, c.Kind)
	}
}

func TestMergeIdenticalSidesKeepsModeOfOurs(t *testing.T) {
	h := object.HashBytes([]byte("same"))
	base := map[string]index.Entry{}
	ours := map[string]index.Entry{"run.sh": {Mode: object.TreeModeExecutable, Path: "run.sh", Hash: h}}
	theirs := map[string]index.Entry{"run.sh": {Mode: object.TreeModeFile, Path: "run.sh", Hash: h}}

	res := Merge(base, ours, theirs)
	require.True(t, res.Clean())
	assert.Equal(t, object.TreeModeExecutable, res.Merged["run.sh"].Mode)
}

func TestMergeEntriesOrdered(t *testing.T) {
	res := Merge(nil, mapOf(map[string]string{"b": "1", "a/x": "2"}), nil)
	entries := res.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a/x", entries[0].Path)
	assert.Equal(t, "b", entries[1].Path)
}

func TestResolvePolicies(t *testing.T) {
	base := mapOf(map[string]string{"a": "A", "d": "D", "keep": "K"})
	ours := mapOf(map[string]string{"a": "AO", "keep": "K"})
	theirs := mapOf(map[string]string{"a": "AT", "d": "D2", "keep": "K"})

	res := Merge(base, ours, theirs)
	require.ElementsMatch(t, []string{"a", "d"}, res.ConflictPaths())

	none := Resolve(res, base, ours, theirs, PolicyNone)
	assert.Equal(t, res.ConflictPaths(), none.ConflictPaths())
	assert.NotContains(t, none.Merged, "a")
	assert.Empty(t, none.Resolved)

	o := Resolve(res, base, ours, theirs, PolicyOurs)
	require.True(t, o.Clean())
	assert.Equal(t, []string{"a", "d"}, lo.Map(o.Resolved, func(c Conflict, _ int) string { return c.Path }))
	assert.Equal(t, ours["a"].Hash, o.Merged["a"].Hash)
	assert.NotContains(t, o.Merged, "d", "ours deleted d, so PolicyOurs deletes it")
	assert.Contains(t, o.Merged, "keep")

	th := Resolve(res, base, ours, theirs, PolicyTheirs)
	require.True(t, th.Clean())
	assert.Equal(t, theirs["a"].Hash, th.Merged["a"].Hash)
	assert.Equal(t, theirs["d"].Hash, th.Merged["d"].Hash)

	assert.Len(t, res.Conflicts, 2, "Resolve must not modify its input")
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyNone, "none": PolicyNone, "Ours": PolicyOurs, "theirs": PolicyTheirs} {
		got, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("union")
	assert.Error(t, err)
}
