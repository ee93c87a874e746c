package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/index"
	"github.com/odvcencio/mgit/pkg/object"
)

var (
	// ErrDirtyWorkTree is returned when an operation that rewrites the
	// working tree finds uncommitted changes.
	ErrDirtyWorkTree = errors.New("working tree is not clean")
	// ErrUntrackedOverwrite is returned when a checkout would replace an
	// untracked file.
	ErrUntrackedOverwrite = errors.New("untracked file would be overwritten")
)

// Checkout switches the working directory to the state of the target.
// The target can be a branch name or any revision naming a commit.
//
//  1. Refuse if there are uncommitted changes.
//  2. Resolve target: branch name first, then revision.
//  3. Replace tracked files with the target tree and rewrite the staging list.
//  4. Update HEAD (symbolic ref for branch, raw hash for detached).
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	isBranch, err := r.BranchExists(target)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	var targetHash object.Hash
	if isBranch {
		targetHash, err = r.ResolveRef(branchRef + target)
	} else {
		targetHash, err = r.ResolveRevision(target)
	}
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	targetFiles, err := r.commitFiles(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	oldHead, err := r.HeadCommit()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.materialize(targetFiles); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if isBranch {
		err = r.SetHeadRef(branchRef + target)
	} else {
		err = r.DetachHead(targetHash)
	}
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.appendReflog(headFile, oldHead, targetHash, "checkout: moving to "+target); err != nil {
		return &RefUpdateReflogError{Ref: headFile, OldHash: oldHead, NewHash: targetHash, Err: err}
	}

	r.log.Debug("checked out",
		zap.String("target", target),
		zap.String("commit", string(targetHash)),
		zap.Bool("detached", !isBranch),
		zap.Int("files", len(targetFiles)),
	)
	return nil
}

// materialize replaces every tracked file (HEAD tree plus staging list) with
// the files of target and makes target the staging list. Untracked files are
// left alone; one that target would overwrite aborts before any change, as
// does a target blob that cannot be read.
func (r *Repo) materialize(target map[string]index.Entry) error {
	tracked, err := r.trackedFiles()
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(target))
	for p := range target {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if _, ok := tracked[p]; ok {
			continue
		}
		exists, err := r.Work.Exists(p)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %q", ErrUntrackedOverwrite, p)
		}
	}

	contents := make(map[string][]byte, len(paths))
	for _, p := range paths {
		blob, err := r.Store.ReadBlob(target[p].Hash)
		if err != nil {
			return fmt.Errorf("read blob for %q: %w", p, err)
		}
		contents[p] = blob.Data
	}

	for p := range tracked {
		if _, keep := target[p]; keep {
			continue
		}
		if err := r.Work.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %q: %w", p, err)
		}
	}

	for _, p := range paths {
		if err := r.Work.WriteFile(p, contents[p], filePermFromMode(target[p].Mode)); err != nil {
			return fmt.Errorf("write %q: %w", p, err)
		}
	}

	entries := make([]index.Entry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, target[p])
	}
	return r.WriteIndex(index.FromEntries(entries))
}

// trackedFiles returns the union of HEAD tree paths and staged paths.
func (r *Repo) trackedFiles() (map[string]struct{}, error) {
	files := make(map[string]struct{})

	head, err := r.HeadCommit()
	if err != nil {
		return nil, err
	}
	headFiles, err := r.commitFiles(head)
	if err != nil {
		return nil, err
	}
	for p := range headFiles {
		files[p] = struct{}{}
	}

	ix, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	for _, p := range ix.Paths() {
		files[p] = struct{}{}
	}
	return files, nil
}
