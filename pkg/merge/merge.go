// Package merge reconciles two flat path→entry projections against a common
// base. It works at path granularity: file contents are never inspected.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/odvcencio/mgit/pkg/index"
)

// Stats tracks counts of path dispositions during a merge.
type Stats struct {
	TotalPaths     int
	Unchanged      int
	OursModified   int
	TheirsModified int
	BothSame       int
	Added          int
	Deleted        int
	Conflicts      int
}

// Conflict records a path the rule table could not decide, with all three
// versions (nil = absent).
type Conflict struct {
	Path   string
	Kind   ConflictKind
	Base   *index.Entry
	Ours   *index.Entry
	Theirs *index.Entry
}

// Result holds the output of a three-way merge. Conflicted paths are absent
// from Merged until a policy resolves them.
type Result struct {
	Merged    map[string]index.Entry
	Conflicts []Conflict
	Resolved  []Conflict // conflicts settled by a Policy, in path order
	Stats     Stats
}

// Clean reports whether the merge produced no conflicts.
func (r *Result) Clean() bool {
	return len(r.Conflicts) == 0
}

// ConflictPaths lists the conflicted paths in sorted order.
func (r *Result) ConflictPaths() []string {
	return lo.Map(r.Conflicts, func(c Conflict, _ int) string { return c.Path })
}

// Entries returns the merged projection in path order.
func (r *Result) Entries() []index.Entry {
	paths := lo.Keys(r.Merged)
	sort.Strings(paths)
	return lo.Map(paths, func(p string, _ int) index.Entry { return r.Merged[p] })
}

// Merge runs the three-way rule table over every path in the union of base,
// ours and theirs, visiting paths in sorted order:
//
//	ours == theirs               → that state (omitted if both absent)
//	ours == base, theirs != base → theirs
//	theirs == base, ours != base → ours
//	otherwise                    → conflict
//
// Sides are compared by presence and hash.
func Merge(base, ours, theirs map[string]index.Entry) *Result {
	paths := unionPaths(base, ours, theirs)
	res := &Result{
		Merged: make(map[string]index.Entry, len(paths)),
		Stats:  Stats{TotalPaths: len(paths)},
	}

	for _, p := range paths {
		b, o, t := lookup(base, p), lookup(ours, p), lookup(theirs, p)
		disp, winner := classify(b, o, t)
		switch disp {
		case Unchanged:
			res.Stats.Unchanged++
		case OursOnly:
			res.Stats.OursModified++
		case TheirsOnly:
			res.Stats.TheirsModified++
		case BothSame:
			res.Stats.BothSame++
		case AddedOurs, AddedTheirs:
			res.Stats.Added++
		case DeletedOurs, DeletedTheirs, DeletedBoth:
			res.Stats.Deleted++
		case Conflicted:
			res.Stats.Conflicts++
			res.Conflicts = append(res.Conflicts, Conflict{
				Path:   p,
				Kind:   conflictKind(b, o, t),
				Base:   b,
				Ours:   o,
				Theirs: t,
			})
			continue
		}
		if winner != nil {
			res.Merged[p] = *winner
		}
	}
	return res
}

// Policy is an automatic conflict resolution applied after Merge.
type Policy int

const (
	PolicyNone   Policy = iota // leave conflicts for the caller
	PolicyOurs                 // take ours for every conflicted path
	PolicyTheirs               // take theirs for every conflicted path
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyOurs:
		return "ours"
	case PolicyTheirs:
		return "theirs"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps "none", "ours" or "theirs" (case-insensitive, empty =
// none) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PolicyNone, nil
	case "ours":
		return PolicyOurs, nil
	case "theirs":
		return PolicyTheirs, nil
	}
	return PolicyNone, fmt.Errorf("unknown conflict policy %q", s)
}

// Resolve applies p to every conflicted path of r using the same three
// mappings that produced it. The chosen side's state is taken as-is, so a
// side that deleted the path deletes it from the result, and the settled
// conflicts move to Resolved. r is not modified.
func Resolve(r *Result, base, ours, theirs map[string]index.Entry, p Policy) *Result {
	out := &Result{
		Merged:   make(map[string]index.Entry, len(r.Merged)+len(r.Conflicts)),
		Resolved: append([]Conflict(nil), r.Resolved...),
		Stats:    r.Stats,
	}
	for path, e := range r.Merged {
		out.Merged[path] = e
	}
	if p == PolicyNone {
		out.Conflicts = append(out.Conflicts, r.Conflicts...)
		return out
	}

	chosen := ours
	if p == PolicyTheirs {
		chosen = theirs
	}
	for _, c := range r.Conflicts {
		if e, ok := chosen[c.Path]; ok {
			out.Merged[c.Path] = e
		}
		out.Resolved = append(out.Resolved, c)
	}
	out.Stats.Conflicts = 0
	return out
}

func lookup(m map[string]index.Entry, path string) *index.Entry {
	e, ok := m[path]
	if !ok {
		return nil
	}
	return &e
}

func unionPaths(maps ...map[string]index.Entry) []string {
	var all []string
	for _, m := range maps {
		all = append(all, lo.Keys(m)...)
	}
	paths := lo.Uniq(all)
	sort.Strings(paths)
	return paths
}
