package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/repo"
)

func newAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			paths, err := repoPaths(r, args)
			if err != nil {
				return err
			}
			return r.Add(paths)
		},
	}
}

func newRmCmd(c *cli) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm [--cached] <paths...>",
		Short: "Unstage files and remove them from the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			paths, err := repoPaths(r, args)
			if err != nil {
				return err
			}
			return r.Remove(paths, cached)
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "remove from the staging list only, keep files on disk")
	return cmd
}

func newResetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [paths...]",
		Short: "Unstage paths by restoring staging entries from HEAD",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			paths, err := repoPaths(r, args)
			if err != nil {
				return err
			}
			return r.Reset(paths)
		},
	}
}

// repoPaths maps command-line paths, relative to the process working
// directory, to repository-relative paths.
func repoPaths(r *repo.Repo, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		rel, err := r.RepoRelPath(a)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}
