package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// ErrPathConflict is returned when one path is both a file and the directory
// prefix of another path.
var ErrPathConflict = errors.New("path is both a file and a directory")

// Project converts a flat list of staged entries into nested tree objects,
// writing every tree to store and returning the root hash.
//
// Entries are grouped by parent directory and every implied ancestor
// directory is materialized, so "a/b/c.txt" alone yields trees for "a/b",
// "a" and the root. Directories are written deepest first; each parent
// embeds the hashes of its children. An empty list projects to the empty
// tree.
func Project(store *object.Store, entries []index.Entry) (object.Hash, error) {
	files := make(map[string][]object.TreeEntry) // dir -> file entries
	children := make(map[string][]string)        // dir -> child dir paths
	dirs := map[string]struct{}{".": {}}
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		p := vfs.Clean(e.Path)
		if p == "." {
			return "", fmt.Errorf("project: empty path")
		}
		if _, dup := seen[p]; dup {
			return "", fmt.Errorf("project: duplicate path %q", p)
		}
		seen[p] = struct{}{}

		dir := vfs.Dir(p)
		files[dir] = append(files[dir], object.TreeEntry{
			Mode: normalizeFileMode(e.Mode),
			Name: p[strings.LastIndexByte(p, '/')+1:],
			Hash: e.Hash,
		})
		for d := dir; d != "."; d = vfs.Dir(d) {
			if _, ok := dirs[d]; ok {
				break
			}
			dirs[d] = struct{}{}
			parent := vfs.Dir(d)
			children[parent] = append(children[parent], d)
		}
	}

	for p := range seen {
		if _, ok := dirs[p]; ok {
			return "", fmt.Errorf("project %q: %w", p, ErrPathConflict)
		}
	}

	order := make([]string, 0, len(dirs))
	for d := range dirs {
		order = append(order, d)
	}
	sort.Slice(order, func(i, j int) bool {
		di, dj := dirDepth(order[i]), dirDepth(order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})

	hashes := make(map[string]object.Hash, len(order))
	for _, d := range order {
		treeEntries := append([]object.TreeEntry(nil), files[d]...)
		for _, child := range children[d] {
			treeEntries = append(treeEntries, object.TreeEntry{
				Mode: object.TreeModeDir,
				Name: child[strings.LastIndexByte(child, '/')+1:],
				Hash: hashes[child],
			})
		}
		h, err := store.WriteTree(&object.TreeObj{Entries: treeEntries})
		if err != nil {
			return "", fmt.Errorf("project: write tree %q: %w", d, err)
		}
		hashes[d] = h
	}
	return hashes["."], nil
}

func dirDepth(d string) int {
	if d == "." {
		return 0
	}
	return strings.Count(d, "/") + 1
}

// Flatten walks a tree depth-first in entry order and returns every file
// with its full slash-separated path.
func Flatten(store *object.Store, root object.Hash) ([]index.Entry, error) {
	var out []index.Entry
	if err := flattenRec(store, root, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenRec(store *object.Store, h object.Hash, prefix string, out *[]index.Entry) error {
	treeObj, err := store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	for _, entry := range treeObj.Entries {
		if entry.Name == "." || entry.Name == ".." || strings.Contains(entry.Name, "/") {
			return fmt.Errorf("flatten tree %s: entry %q: %w", h, entry.Name, object.ErrInvalidFormat)
		}
		fullPath := entry.Name
		if prefix != "" {
			fullPath = prefix + "/" + entry.Name
		}

		if entry.IsDir() {
			if err := flattenRec(store, entry.Hash, fullPath, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, index.Entry{
			Mode: normalizeFileMode(entry.Mode),
			Path: fullPath,
			Hash: entry.Hash,
		})
	}
	return nil
}

// BuildTree projects the staging list into tree objects.
func (r *Repo) BuildTree(ix *index.Index) (object.Hash, error) {
	return Project(r.Store, ix.Entries())
}

// FlattenTree lists every file reachable from tree h.
func (r *Repo) FlattenTree(h object.Hash) ([]index.Entry, error) {
	return Flatten(r.Store, h)
}

// commitFiles flattens the tree of commit h into a path-keyed map. An empty
// hash yields an empty map.
func (r *Repo) commitFiles(h object.Hash) (map[string]index.Entry, error) {
	if h == "" {
		return map[string]index.Entry{}, nil
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	entries, err := r.FlattenTree(c.TreeHash)
	if err != nil {
		return nil, err
	}
	return index.FromEntries(entries).Map(), nil
}
