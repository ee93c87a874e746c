package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/diff"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newDiffCmd(c *cli) *cobra.Command {
	var staged bool
	var unified int

	cmd := &cobra.Command{
		Use:   "diff [--staged] [path...]",
		Short: "Show line changes in the working tree or staging list",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			paths, err := repoPaths(r, args)
			if err != nil {
				return err
			}
			diffs, err := r.Diff(repo.DiffOptions{Staged: staged, Context: unified, Paths: paths})
			if err != nil {
				return err
			}
			for _, d := range diffs {
				if err := diff.Format(cmd.OutOrStdout(), d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&staged, "staged", false, "compare the staging list against HEAD")
	cmd.Flags().BoolVar(&staged, "cached", false, "alias for --staged")
	cmd.Flags().IntVarP(&unified, "unified", "U", diff.DefaultContext, "lines of context around each change")
	return cmd
}
