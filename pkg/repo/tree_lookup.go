package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// treeEntryAtPath descends from treeHash one path component at a time. The
// bool is false when some component is missing.
func (r *Repo) treeEntryAtPath(treeHash object.Hash, relPath string) (object.TreeEntry, bool, error) {
	relPath = vfs.Clean(relPath)
	if relPath == "." {
		return object.TreeEntry{Mode: object.TreeModeDir, Hash: treeHash}, true, nil
	}
	parts := strings.Split(relPath, "/")
	current := treeHash

	for i, part := range parts {
		treeObj, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, false, fmt.Errorf("read tree %s: %w", current, err)
		}

		var (
			entry object.TreeEntry
			found bool
		)
		for _, te := range treeObj.Entries {
			if te.Name == part {
				entry = te
				found = true
				break
			}
		}
		if !found {
			return object.TreeEntry{}, false, nil
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if !entry.IsDir() {
			return object.TreeEntry{}, false, nil
		}
		current = entry.Hash
	}

	return object.TreeEntry{}, false, nil
}

// ResolveObject resolves "<rev>" or "<rev>:<path>" to an object hash. With a
// path, rev must name a commit or tree and the path is looked up inside it.
func (r *Repo) ResolveObject(spec string) (object.Hash, error) {
	rev, path, hasPath := strings.Cut(spec, ":")
	h, err := r.ResolveRevision(rev)
	if err != nil {
		return "", err
	}
	if !hasPath {
		return h, nil
	}

	objType, body, err := r.Store.Get(h)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", spec, err)
	}
	treeHash := h
	switch objType {
	case object.TypeCommit:
		c, err := object.UnmarshalCommit(body)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", spec, err)
		}
		treeHash = c.TreeHash
	case object.TypeTree:
	default:
		return "", fmt.Errorf("resolve %q: %s is a %s, not a tree-ish", spec, h.Short(), objType)
	}

	entry, ok, err := r.treeEntryAtPath(treeHash, path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", spec, err)
	}
	if !ok {
		return "", fmt.Errorf("resolve %q: path %q: %w", spec, path, ErrUnknownRevision)
	}
	return entry.Hash, nil
}
