package repo

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
)

// FileStatus represents the state of a file in the working tree or index.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // in staging, not in HEAD tree
	StatusModified                    // content or mode differs
	StatusDeleted                     // in HEAD but not in staging (or staged but gone from disk)
	StatusUntracked                   // in working dir but not in staging
)

// Code is the one-letter form used by short status output.
func (s FileStatus) Code() byte {
	switch s {
	case StatusNew:
		return 'A'
	case StatusModified:
		return 'M'
	case StatusDeleted:
		return 'D'
	case StatusUntracked:
		return '?'
	}
	return ' '
}

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusNew:
		return "new file"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	}
	return fmt.Sprintf("FileStatus(%d)", int(s))
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // staging vs HEAD comparison
	WorkStatus  FileStatus // working tree vs staging comparison
}

// Clean reports whether the path has no staged or unstaged change.
func (e StatusEntry) Clean() bool {
	return e.IndexStatus == StatusClean && e.WorkStatus == StatusClean
}

// Status computes the working tree status for the repository.
//
//  1. Read the staging list.
//  2. Walk the working directory (skipping .mgit/ and ignored paths).
//  3. Compare working tree files against staging entries.
//  4. Compare staging entries against the HEAD tree (empty when unborn).
//
// Only paths with some change are returned, sorted by path.
func (r *Repo) Status() ([]StatusEntry, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	staged := ix.Map()

	workFiles := make(map[string]struct{})
	err = r.walkWorkTree(NewIgnoreChecker(r.Work), ".", func(name string) error {
		workFiles[name] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	head, err := r.HeadCommit()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	headFiles, err := r.commitFiles(head)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	entry := func(p string) *StatusEntry {
		e, ok := result[p]
		if !ok {
			e = &StatusEntry{Path: p}
			result[p] = e
		}
		return e
	}

	// Working tree vs staging.
	for p := range workFiles {
		se, ok := staged[p]
		if !ok {
			e := entry(p)
			e.IndexStatus, e.WorkStatus = StatusUntracked, StatusUntracked
			continue
		}
		changed, err := r.workFileDiffers(p, se)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if changed {
			entry(p).WorkStatus = StatusModified
		}
	}
	for p := range staged {
		if _, onDisk := workFiles[p]; !onDisk {
			entry(p).WorkStatus = StatusDeleted
		}
	}

	// Staging vs HEAD.
	for p, se := range staged {
		he, inHead := headFiles[p]
		switch {
		case !inHead:
			entry(p).IndexStatus = StatusNew
		case he.Hash != se.Hash || normalizeFileMode(he.Mode) != normalizeFileMode(se.Mode):
			entry(p).IndexStatus = StatusModified
		}
	}
	for p := range headFiles {
		if _, ok := staged[p]; !ok {
			entry(p).IndexStatus = StatusDeleted
		}
	}

	out := lo.FilterMap(lo.Values(result), func(e *StatusEntry, _ int) (StatusEntry, bool) {
		return *e, !e.Clean()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// workFileDiffers reports whether the working copy of p no longer matches
// its staged entry by content hash or executable bit.
func (r *Repo) workFileDiffers(p string, se index.Entry) (bool, error) {
	info, err := r.Work.Stat(p)
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", p, err)
	}
	if modeFromFileInfo(info) != normalizeFileMode(se.Mode) {
		return true, nil
	}
	content, err := r.Work.ReadFile(p)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", p, err)
	}
	return object.HashObject(object.TypeBlob, content) != se.Hash, nil
}

// ensureClean checks that the working tree has no uncommitted changes.
// Untracked files are allowed.
func (r *Repo) ensureClean() error {
	entries, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	for _, e := range entries {
		if e.IndexStatus == StatusUntracked {
			continue
		}
		return fmt.Errorf("%w (file %q has uncommitted changes)", ErrDirtyWorkTree, e.Path)
	}
	return nil
}
