// Package vfs provides the byte-storage capability the repository core is
// built on. Names are slash-separated and relative to the root of the FS.
package vfs

import (
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// FS is the minimal storage surface used by the object store, the staging
// list, refs and checkout. Implementations must make WriteFile atomic: a
// reader never observes a partially written file at its final name.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Exists(name string) (bool, error)
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(name string) error
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
	Remove(name string) error
}

// WalkFunc is called for every regular file found by Walk.
type WalkFunc func(name string, d fs.DirEntry) error

// SkipDir may be returned by a WalkFunc or a skip predicate to prune a
// directory.
var SkipDir = fs.SkipDir

// Walk visits every regular file below root in lexical order. Directories for
// which skip returns true are not descended into. A missing root is not an
// error.
func Walk(fsys FS, root string, skip func(name string) bool, fn WalkFunc) error {
	root = Clean(root)
	entries, err := fsys.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		name := Join(root, e.Name())
		if e.IsDir() {
			if skip != nil && skip(name) {
				continue
			}
			if err := Walk(fsys, name, skip, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(name, e); err != nil {
			if errors.Is(err, SkipDir) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Clean normalizes a relative name. The root is represented as ".".
func Clean(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if name == "" {
		return "."
	}
	return name
}

// Join joins name elements, treating "." as the root.
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

// Dir returns the parent directory of name ("." for top-level names).
func Dir(name string) string {
	return Clean(path.Dir(Clean(name)))
}

func sortDirEntries(entries []fs.DirEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
}
