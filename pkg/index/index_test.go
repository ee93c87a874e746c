package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

var (
	hashA = object.HashBytes([]byte("a"))
	hashB = object.HashBytes([]byte("b"))
)

func TestMarshalWritesPathOrder(t *testing.T) {
	ix := New()
	ix.Upsert(Entry{Mode: object.TreeModeFile, Path: "src/z.go", Hash: hashA})
	ix.Upsert(Entry{Mode: object.TreeModeExecutable, Path: "build.sh", Hash: hashB})
	ix.Upsert(Entry{Mode: object.TreeModeFile, Path: "README", Hash: hashA})

	want := "100644 " + string(hashA) + " README\n" +
		"100755 " + string(hashB) + " build.sh\n" +
		"100644 " + string(hashA) + " src/z.go\n"
	assert.Equal(t, want, string(ix.Marshal()))
}

func TestParseRoundTrip(t *testing.T) {
	data := "100644 " + string(hashA) + " dir/with space.txt\r\n" +
		"\n" +
		"100755 " + string(hashB) + " run.sh\n"
	ix, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Equal(t, 2, ix.Len())

	e, ok := ix.Get("dir/with space.txt")
	require.True(t, ok)
	assert.Equal(t, hashA, e.Hash)
	assert.Equal(t, object.TreeModeFile, e.Mode)

	again, err := Parse(ix.Marshal())
	require.NoError(t, err)
	assert.Equal(t, ix.Entries(), again.Entries())
}

func TestParseRejectsMalformedLines(t *testing.T) {
	cases := map[string]string{
		"no spaces":  "100644",
		"no path":    "100644 " + string(hashA),
		"empty path": "100644 " + string(hashA) + " ",
		"short hash": "100644 abc file",
		"bad hex":    "100644 " + strings.Repeat("x", 40) + " file",
		"empty mode": " " + string(hashA) + " file",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(line + "\n"))
			require.ErrorIs(t, err, ErrInvalidIndex)
		})
	}
}

func TestUpsertReplacesAndRemove(t *testing.T) {
	ix := New()
	ix.Upsert(Entry{Path: "a.txt", Hash: hashA})
	ix.Upsert(Entry{Path: "./a.txt", Hash: hashB})
	require.Equal(t, 1, ix.Len())

	e, _ := ix.Get("a.txt")
	assert.Equal(t, hashB, e.Hash)
	assert.Equal(t, object.TreeModeFile, e.Mode, "empty mode defaults to regular file")

	assert.True(t, ix.Remove("a.txt"))
	assert.False(t, ix.Remove("a.txt"))
	assert.Zero(t, ix.Len())
}

func TestFromEntriesAndMapCopy(t *testing.T) {
	ix := FromEntries([]Entry{
		{Path: "b", Hash: hashB},
		{Path: "a", Hash: hashA},
	})
	assert.Equal(t, []string{"a", "b"}, ix.Paths())

	m := ix.Map()
	delete(m, "a")
	assert.Equal(t, 2, ix.Len(), "Map must return a copy")
}

func TestLoadSave(t *testing.T) {
	mem := vfs.NewMem()

	empty, err := Load(mem, "index")
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	ix := New()
	ix.Upsert(Entry{Path: "x/y.txt", Hash: hashA})
	require.NoError(t, ix.Save(mem, "index"))

	loaded, err := Load(mem, "index")
	require.NoError(t, err)
	assert.Equal(t, ix.Entries(), loaded.Entries())

	require.NoError(t, mem.WriteFile("index", []byte("garbage\n"), 0o644))
	_, err = Load(mem, "index")
	require.ErrorIs(t, err, ErrInvalidIndex)
}
