package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func eachFS(t *testing.T, fn func(t *testing.T, fsys FS)) {
	t.Run("os", func(t *testing.T) { fn(t, NewOS(t.TempDir())) })
	t.Run("mem", func(t *testing.T) { fn(t, NewMem()) })
}

func TestWriteReadRoundTrip(t *testing.T) {
	eachFS(t, func(t *testing.T, fsys FS) {
		require.NoError(t, fsys.WriteFile("a/b/c.txt", []byte("hello"), 0o644))

		got, err := fsys.ReadFile("a/b/c.txt")
		require.NoError(t, err)
		require.Equal(t, "hello", string(got))

		ok, err := fsys.Exists("a/b")
		require.NoError(t, err)
		require.True(t, ok, "parent directory should exist")
	})
}

func TestReadMissingIsNotExist(t *testing.T) {
	eachFS(t, func(t *testing.T, fsys FS) {
		_, err := fsys.ReadFile("nope")
		require.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)

		ok, err := fsys.Exists("nope")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestReadDirSorted(t *testing.T) {
	eachFS(t, func(t *testing.T, fsys FS) {
		for _, name := range []string{"z.txt", "a.txt", "m/x.txt"} {
			require.NoError(t, fsys.WriteFile(name, []byte(name), 0o644))
		}
		entries, err := fsys.ReadDir(".")
		require.NoError(t, err)

		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		require.Equal(t, []string{"a.txt", "m", "z.txt"}, names)
		require.True(t, entries[1].IsDir())
	})
}

func TestRemovePrunesEmptyParents(t *testing.T) {
	eachFS(t, func(t *testing.T, fsys FS) {
		require.NoError(t, fsys.WriteFile("d/e/f.txt", []byte("x"), 0o644))
		require.NoError(t, fsys.WriteFile("d/keep.txt", []byte("y"), 0o644))
		require.NoError(t, fsys.Remove("d/e/f.txt"))

		ok, err := fsys.Exists("d/e")
		require.NoError(t, err)
		require.False(t, ok, "empty directory should be pruned")

		ok, err = fsys.Exists("d")
		require.NoError(t, err)
		require.True(t, ok, "non-empty directory should survive")
	})
}

func TestWalkSkipsDirectories(t *testing.T) {
	eachFS(t, func(t *testing.T, fsys FS) {
		for _, name := range []string{"b.txt", "a/1.txt", ".meta/hidden", "a/z/2.txt"} {
			require.NoError(t, fsys.WriteFile(name, nil, 0o644))
		}
		var seen []string
		err := Walk(fsys, ".", func(name string) bool { return name == ".meta" }, func(name string, d fs.DirEntry) error {
			seen = append(seen, name)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"a/1.txt", "a/z/2.txt", "b.txt"}, seen)
	})
}

func TestOSWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fsys := NewOS(dir)
	require.NoError(t, fsys.WriteFile("obj/ab", []byte("payload"), 0o444))

	entries, err := os.ReadDir(filepath.Join(dir, "obj"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ab", entries[0].Name())
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"":         ".",
		".":        ".",
		"a/../b":   "b",
		"/abs/x":   "abs/x",
		`win\path`: "win/path",
		"../../up": "up",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}
