package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/mgit/pkg/vfs"
)

// Reset unstages paths by restoring staging entries to their HEAD versions.
//
//   - A path present in HEAD gets HEAD's hash and mode back.
//   - A path absent from HEAD is dropped from the staging list.
//   - With no paths, the whole staging list is reset to HEAD.
//
// Reset does not modify the working tree.
func (r *Repo) Reset(paths []string) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	head, err := r.HeadCommit()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	headEntries, err := r.commitFiles(head)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	all := make(map[string]struct{}, ix.Len()+len(headEntries))
	for _, p := range ix.Paths() {
		all[p] = struct{}{}
	}
	for p := range headEntries {
		all[p] = struct{}{}
	}
	targets, err := resetTargets(paths, all)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	for _, p := range targets {
		if e, ok := headEntries[p]; ok {
			ix.Upsert(e)
			continue
		}
		ix.Remove(p)
	}
	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func resetTargets(paths []string, all map[string]struct{}) ([]string, error) {
	targets := make(map[string]struct{})
	if len(paths) == 0 {
		targets = all
	}
	for _, raw := range paths {
		rel := vfs.Clean(strings.TrimSpace(raw))
		matched := false
		for p := range all {
			if rel == "." || p == rel || strings.HasPrefix(p, rel+"/") {
				targets[p] = struct{}{}
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("path %q did not match staged or HEAD entries", raw)
		}
	}

	out := make([]string, 0, len(targets))
	for p := range targets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}
