package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// ErrNotStaged is returned by Remove for a path the staging list does not
// contain.
var ErrNotStaged = errors.New("path is not staged")

// ReadIndex loads the staging list from .mgit/index. A missing file yields an
// empty list.
func (r *Repo) ReadIndex() (*index.Index, error) {
	ix, err := index.Load(r.Meta, indexFile)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return ix, nil
}

// WriteIndex atomically replaces .mgit/index.
func (r *Repo) WriteIndex(ix *index.Index) error {
	if err := ix.Save(r.Meta, indexFile); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// HashObject hashes data as a blob. With write set, the blob is also stored.
func (r *Repo) HashObject(data []byte, write bool) (object.Hash, error) {
	if !write {
		return object.HashObject(object.TypeBlob, data), nil
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: data})
	if err != nil {
		return "", fmt.Errorf("hash-object: %w", err)
	}
	return h, nil
}

// Add stages the given repo-relative paths. A directory is expanded to every
// non-ignored file beneath it. A path that was staged but no longer exists in
// the working tree is unstaged. The staging list is written once at the end.
func (r *Repo) Add(paths []string) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	ic := NewIgnoreChecker(r.Work)

	added := 0
	for _, p := range paths {
		rel := vfs.Clean(p)
		if rel == MetaDirName || strings.HasPrefix(rel, MetaDirName+"/") {
			return fmt.Errorf("add: %q is inside the repository metadata", p)
		}

		info, err := r.Work.Stat(rel)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if n := r.unstageMissing(ix, rel); n > 0 {
				added += n
				continue
			}
			return fmt.Errorf("add: %q: %w", p, err)
		case err != nil:
			return fmt.Errorf("add: stat %q: %w", p, err)
		case info.IsDir():
			err = r.walkWorkTree(ic, rel, func(name string) error {
				if err := r.stageFile(ix, name); err != nil {
					return err
				}
				added++
				return nil
			})
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			added += r.unstageMissing(ix, rel)
		default:
			if err := r.stageFile(ix, rel); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			added++
		}
	}

	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	r.log.Debug("staged paths", zap.Int("paths", added), zap.Int("entries", ix.Len()))
	return nil
}

// stageFile stores the file at rel as a blob and upserts its entry.
func (r *Repo) stageFile(ix *index.Index, rel string) error {
	e, err := r.snapshotFile(rel)
	if err != nil {
		return err
	}
	ix.Upsert(e)
	return nil
}

func (r *Repo) snapshotFile(rel string) (index.Entry, error) {
	content, err := r.Work.ReadFile(rel)
	if err != nil {
		return index.Entry{}, fmt.Errorf("read %q: %w", rel, err)
	}
	info, err := r.Work.Stat(rel)
	if err != nil {
		return index.Entry{}, fmt.Errorf("stat %q: %w", rel, err)
	}
	h, err := r.Store.WriteBlob(&object.Blob{Data: content})
	if err != nil {
		return index.Entry{}, fmt.Errorf("write blob %q: %w", rel, err)
	}
	return index.Entry{Mode: modeFromFileInfo(info), Path: rel, Hash: h}, nil
}

// unstageMissing drops staged entries at or under rel whose files are gone.
func (r *Repo) unstageMissing(ix *index.Index, rel string) int {
	n := 0
	for _, p := range ix.Paths() {
		if rel != "." && p != rel && !strings.HasPrefix(p, rel+"/") {
			continue
		}
		if ok, _ := r.Work.Exists(p); ok {
			continue
		}
		ix.Remove(p)
		n++
	}
	return n
}

// Remove unstages paths. Unless cached is set, the working-tree files are
// deleted too.
func (r *Repo) Remove(paths []string, cached bool) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	for _, p := range paths {
		rel := vfs.Clean(p)
		if !ix.Remove(rel) {
			return fmt.Errorf("rm: %q: %w", p, ErrNotStaged)
		}
		if cached {
			continue
		}
		if err := r.Work.Remove(rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("rm: remove %q: %w", p, err)
		}
	}
	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("rm: %w", err)
	}
	return nil
}

// WriteTree snapshots the whole working tree, skipping the metadata directory
// and ignored paths, and returns the root tree hash. The staging list is not
// consulted or changed.
func (r *Repo) WriteTree() (object.Hash, error) {
	ic := NewIgnoreChecker(r.Work)
	var entries []index.Entry
	err := r.walkWorkTree(ic, ".", func(name string) error {
		e, err := r.snapshotFile(name)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	h, err := Project(r.Store, entries)
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	r.log.Debug("wrote working tree", zap.String("tree", string(h)), zap.Int("files", len(entries)))
	return h, nil
}

// walkWorkTree calls fn for every non-ignored regular file under root.
func (r *Repo) walkWorkTree(ic *IgnoreChecker, root string, fn func(name string) error) error {
	return vfs.Walk(r.Work, root, ic.IsIgnoredDir, func(name string, d fs.DirEntry) error {
		if !d.Type().IsRegular() || ic.IsIgnored(name) {
			return nil
		}
		return fn(name)
	})
}

// RepoRelPath converts a path (absolute, or relative to the process working
// directory) into a slash-separated path relative to the repository root.
// For repositories without a RootDir the path is taken as repo-relative.
func (r *Repo) RepoRelPath(p string) (string, error) {
	if r.RootDir == "" {
		return vfs.Clean(p), nil
	}
	abs := p
	if !filepath.IsAbs(p) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", p, err)
		}
		abs = filepath.Join(cwd, p)
	}
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside repository at %s", p, r.RootDir)
	}
	return vfs.Clean(filepath.ToSlash(rel)), nil
}
