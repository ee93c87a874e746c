package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/mgit/pkg/diff"
	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
)

// DiffOptions selects what Diff compares.
type DiffOptions struct {
	// Staged compares the staging list against HEAD instead of the working
	// tree against the staging list.
	Staged bool
	// Context is the number of unchanged lines around each change; negative
	// selects diff.DefaultContext.
	Context int
	// Paths limits the output to these repo-relative files or directories.
	Paths []string
}

// Diff returns line-level changes for every path that status reports as
// modified, added or deleted on the compared side. Untracked files are not
// included.
func (r *Repo) Diff(opts DiffOptions) ([]*diff.FileDiff, error) {
	if opts.Context < 0 {
		opts.Context = diff.DefaultContext
	}
	entries, err := r.Status()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	staged := ix.Map()

	var headFiles map[string]index.Entry
	if opts.Staged {
		head, err := r.HeadCommit()
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		if headFiles, err = r.commitFiles(head); err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
	}

	var out []*diff.FileDiff
	for _, e := range entries {
		if e.IndexStatus == StatusUntracked || !pathSelected(e.Path, opts.Paths) {
			continue
		}
		var d *diff.FileDiff
		if opts.Staged {
			if e.IndexStatus == StatusClean {
				continue
			}
			d, err = r.diffStaged(e.Path, headFiles, staged, opts.Context)
		} else {
			if e.WorkStatus == StatusClean {
				continue
			}
			d, err = r.diffWorking(e.Path, staged[e.Path], opts.Context)
		}
		if err != nil {
			return nil, fmt.Errorf("diff %q: %w", e.Path, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *Repo) diffStaged(p string, head, staged map[string]index.Entry, context int) (*diff.FileDiff, error) {
	before, oldEntry, err := r.blobSide(head, p)
	if err != nil {
		return nil, err
	}
	after, newEntry, err := r.blobSide(staged, p)
	if err != nil {
		return nil, err
	}
	d := diff.Compare(p, before, after, context)
	fillSides(d, oldEntry, newEntry)
	return d, nil
}

func (r *Repo) diffWorking(p string, se index.Entry, context int) (*diff.FileDiff, error) {
	before, err := r.Store.ReadBlob(se.Hash)
	if err != nil {
		return nil, err
	}
	oldEntry := &se

	var newEntry *index.Entry
	var after []byte
	exists, err := r.Work.Exists(p)
	if err != nil {
		return nil, err
	}
	if exists {
		if newEntry, err = r.workEntry(p); err != nil {
			return nil, err
		}
		if after, err = r.Work.ReadFile(p); err != nil {
			return nil, err
		}
	}
	d := diff.Compare(p, before.Data, after, context)
	fillSides(d, oldEntry, newEntry)
	return d, nil
}

func (r *Repo) blobSide(files map[string]index.Entry, p string) ([]byte, *index.Entry, error) {
	e, ok := files[p]
	if !ok {
		return nil, nil, nil
	}
	b, err := r.Store.ReadBlob(e.Hash)
	if err != nil {
		return nil, nil, err
	}
	return b.Data, &e, nil
}

func (r *Repo) workEntry(p string) (*index.Entry, error) {
	info, err := r.Work.Stat(p)
	if err != nil {
		return nil, err
	}
	content, err := r.Work.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &index.Entry{
		Path: p,
		Hash: object.HashObject(object.TypeBlob, content),
		Mode: modeFromFileInfo(info),
	}, nil
}

func fillSides(d *diff.FileDiff, before, after *index.Entry) {
	if before != nil {
		d.OldMode = normalizeFileMode(before.Mode)
		d.OldHash = string(before.Hash)
	}
	if after != nil {
		d.NewMode = normalizeFileMode(after.Mode)
		d.NewHash = string(after.Hash)
	}
}

// pathSelected reports whether p equals or lies under one of filters. An
// empty filter list selects everything.
func pathSelected(p string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		f = strings.TrimSuffix(f, "/")
		if f == "" || f == "." || p == f || strings.HasPrefix(p, f+"/") {
			return true
		}
	}
	return false
}
