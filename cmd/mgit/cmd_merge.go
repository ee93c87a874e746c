package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/merge"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newMergeCmd(c *cli) *cobra.Command {
	var ff, noFF, ffOnly bool
	var strategyOption, message string

	cmd := &cobra.Command{
		Use:   "merge <revision>",
		Short: "Merge a branch or commit into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if countTrue(ff, noFF, ffOnly) > 1 {
				return fmt.Errorf("merge: --ff, --no-ff and --ff-only are mutually exclusive")
			}
			r, err := c.open()
			if err != nil {
				return err
			}

			opts := r.DefaultMergeOptions()
			switch {
			case ff:
				opts.FastForward = repo.FastForwardAuto
			case noFF:
				opts.FastForward = repo.FastForwardNever
			case ffOnly:
				opts.FastForward = repo.FastForwardOnly
			}
			if cmd.Flags().Changed("strategy-option") {
				if opts.Policy, err = merge.ParsePolicy(strategyOption); err != nil {
					return err
				}
			}
			opts.Message = message

			report, err := r.Merge(args[0], opts)
			if err != nil {
				return err
			}
			return printMergeReport(cmd.OutOrStdout(), args[0], report)
		},
	}

	cmd.Flags().BoolVar(&ff, "ff", false, "fast-forward when possible (default from config)")
	cmd.Flags().BoolVar(&noFF, "no-ff", false, "always create a merge commit")
	cmd.Flags().BoolVar(&ffOnly, "ff-only", false, "refuse to merge unless a fast-forward is possible")
	cmd.Flags().StringVarP(&strategyOption, "strategy-option", "X", "", "resolve conflicts automatically: ours or theirs")
	cmd.Flags().StringVarP(&message, "message", "m", "", "merge commit message")
	return cmd
}

func printMergeReport(out io.Writer, rev string, report *repo.MergeReport) error {
	switch {
	case report.UpToDate:
		fmt.Fprintln(out, "already up to date")
		return nil
	case report.FastForward:
		from := "(unborn)"
		if report.Ours != "" {
			from = report.Ours.Short()
		}
		fmt.Fprintf(out, "fast-forward %s..%s\n", from, report.Commit.Short())
		return nil
	}

	if report.Base == "" {
		fmt.Fprintln(out, "no common ancestor; merging unrelated histories")
	}
	if report.HasConflicts() {
		for _, conflict := range report.Conflicts {
			fmt.Fprintf(out, "CONFLICT (%s): %s\n", conflict.Kind, conflict.Path)
		}
		fmt.Fprintf(out, "%d conflicting path(s); rerun with -X ours or -X theirs to resolve\n", len(report.Conflicts))
		return errMergeConflicts
	}

	for _, c := range report.Resolved {
		fmt.Fprintf(out, "resolved (%s) using %s: %s\n", c.Kind, report.Policy, c.Path)
	}
	s := report.Stats
	fmt.Fprintf(out, "merged %s: %d path(s), %d from ours, %d from theirs, %d added, %d deleted\n",
		rev, s.TotalPaths, s.OursModified, s.TheirsModified, s.Added, s.Deleted)
	fmt.Fprintf(out, "created merge commit %s\n", report.Commit.Short())
	return nil
}

func newMergeBaseCmd(c *cli) *cobra.Command {
	var isAncestor bool

	cmd := &cobra.Command{
		Use:   "merge-base [--is-ancestor] <a> <b>",
		Short: "Find a common ancestor of two commits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			a, err := resolveCommit(r, args[0])
			if err != nil {
				return err
			}
			b, err := resolveCommit(r, args[1])
			if err != nil {
				return err
			}

			if isAncestor {
				ok, err := r.IsAncestor(a, b)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s is not an ancestor of %s", args[0], args[1])
				}
				return nil
			}

			base, found, err := r.CommonAncestor(a, b)
			if err != nil {
				return err
			}
			if !found {
				return repo.ErrNoCommonAncestor
			}
			fmt.Fprintln(cmd.OutOrStdout(), base)
			return nil
		},
	}
	cmd.Flags().BoolVar(&isAncestor, "is-ancestor", false, "exit non-zero unless <a> is an ancestor of <b>")
	return cmd
}
