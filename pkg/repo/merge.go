package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/merge"
	"github.com/odvcencio/mgit/pkg/object"
)

// ErrFastForwardImpossible is returned by Merge in FastForwardOnly mode when
// the current commit is not an ancestor of the one being merged.
var ErrFastForwardImpossible = errors.New("fast-forward not possible")

// FastForwardMode controls whether Merge may move the branch pointer
// instead of creating a merge commit.
type FastForwardMode int

const (
	FastForwardAuto  FastForwardMode = iota // fast-forward when possible
	FastForwardNever                        // always create a merge commit
	FastForwardOnly                         // fail unless a fast-forward is possible
)

func (m FastForwardMode) String() string {
	switch m {
	case FastForwardAuto:
		return "auto"
	case FastForwardNever:
		return "never"
	case FastForwardOnly:
		return "only"
	}
	return fmt.Sprintf("FastForwardMode(%d)", int(m))
}

// ParseFastForwardMode maps "auto", "never" or "only" (case-insensitive,
// empty = auto) to a mode.
func ParseFastForwardMode(s string) (FastForwardMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FastForwardAuto, nil
	case "never":
		return FastForwardNever, nil
	case "only":
		return FastForwardOnly, nil
	}
	return FastForwardAuto, fmt.Errorf("unknown fast-forward mode %q", s)
}

// MergeOptions tunes a repository merge.
type MergeOptions struct {
	FastForward FastForwardMode
	Policy      merge.Policy
	Message     string // merge commit message; a default names the merged revision
	Author      string // empty uses the configured identity
	Signer      CommitSigner
}

// DefaultMergeOptions returns the options configured in [merge].
func (r *Repo) DefaultMergeOptions() MergeOptions {
	ff, _ := ParseFastForwardMode(r.Config.Merge.FastForward)
	policy, _ := merge.ParsePolicy(r.Config.Merge.Conflict)
	return MergeOptions{FastForward: ff, Policy: policy}
}

// MergeReport is the overall result of a repository-level merge.
type MergeReport struct {
	Ours        object.Hash
	Theirs      object.Hash
	Base        object.Hash // empty when the histories share no commit
	UpToDate    bool        // theirs was already contained in ours
	FastForward bool        // the branch was moved to theirs
	Commit      object.Hash // merge commit, or theirs after a fast-forward
	Conflicts   []merge.Conflict
	Resolved    []merge.Conflict // conflicts settled by Policy
	Policy      merge.Policy
	Stats       merge.Stats
}

// HasConflicts reports whether the merge stopped on conflicts.
func (m *MergeReport) HasConflicts() bool {
	return len(m.Conflicts) > 0
}

// Merge integrates the commit named by rev into the current branch.
//
// If rev is already contained in HEAD nothing happens. If HEAD is contained
// in rev and the mode allows it, the branch fast-forwards. Otherwise the
// three trees (common ancestor, ours, theirs) are merged path by path and
// opts.Policy resolves conflicts. A clean result is committed with parents
// (ours, theirs) and checked out. Conflicts leave the repository untouched
// and are returned in the report, not as an error.
func (r *Repo) Merge(rev string, opts MergeOptions) (*MergeReport, error) {
	if err := r.ensureClean(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	ours, err := r.HeadCommit()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	theirs, err := r.ResolveRevision(rev)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if _, err := r.Store.ReadCommit(theirs); err != nil {
		return nil, fmt.Errorf("merge: %s: %w", rev, err)
	}
	report := &MergeReport{Ours: ours, Theirs: theirs}

	upToDate, err := r.IsAncestor(theirs, ours)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if upToDate {
		report.UpToDate = true
		report.Base = theirs
		report.Commit = ours
		return report, nil
	}

	canFastForward := ours == ""
	if !canFastForward {
		canFastForward, err = r.IsAncestor(ours, theirs)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}
	if canFastForward && (opts.FastForward != FastForwardNever || ours == "") {
		return r.fastForward(report, rev)
	}
	if opts.FastForward == FastForwardOnly {
		return nil, fmt.Errorf("merge %s: %w", rev, ErrFastForwardImpossible)
	}

	base, found, err := r.CommonAncestor(ours, theirs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if found {
		report.Base = base
	}

	baseFiles, err := r.commitFiles(report.Base)
	if err != nil {
		return nil, fmt.Errorf("merge: base: %w", err)
	}
	oursFiles, err := r.commitFiles(ours)
	if err != nil {
		return nil, fmt.Errorf("merge: ours: %w", err)
	}
	theirsFiles, err := r.commitFiles(theirs)
	if err != nil {
		return nil, fmt.Errorf("merge: theirs: %w", err)
	}

	res := merge.Merge(baseFiles, oursFiles, theirsFiles)
	res = merge.Resolve(res, baseFiles, oursFiles, theirsFiles, opts.Policy)
	report.Stats = res.Stats
	report.Conflicts = res.Conflicts
	report.Resolved = res.Resolved
	report.Policy = opts.Policy
	r.log.Debug("three-way merge",
		zap.String("base", string(report.Base)),
		zap.String("ours", string(ours)),
		zap.String("theirs", string(theirs)),
		zap.Int("paths", res.Stats.TotalPaths),
		zap.Int("conflicts", len(res.Conflicts)),
		zap.Int("resolved", len(res.Resolved)),
		zap.Stringer("policy", opts.Policy),
	)
	if !res.Clean() {
		return report, nil
	}

	tree, err := Project(r.Store, res.Entries())
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	msg := opts.Message
	if strings.TrimSpace(msg) == "" {
		msg = r.defaultMergeMessage(rev)
	}
	commit, err := r.writeCommit(tree, []object.Hash{ours, theirs}, msg, opts.Author, opts.Signer)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.materialize(res.Merged); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.advanceHead(commit, ours, "merge "+rev); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	report.Commit = commit
	return report, nil
}

func (r *Repo) fastForward(report *MergeReport, rev string) (*MergeReport, error) {
	files, err := r.commitFiles(report.Theirs)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.materialize(files); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := r.advanceHead(report.Theirs, report.Ours, "merge "+rev+": fast-forward"); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	report.FastForward = true
	report.Base = report.Ours
	report.Commit = report.Theirs
	r.log.Debug("fast-forward",
		zap.String("from", string(report.Ours)),
		zap.String("to", string(report.Theirs)),
	)
	return report, nil
}

func (r *Repo) defaultMergeMessage(rev string) string {
	branch, _ := r.CurrentBranch()
	if branch == "" {
		return fmt.Sprintf("Merge %s", rev)
	}
	return fmt.Sprintf("Merge %s into %s", rev, branch)
}
