package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newBranchCmd(c *cli) *cobra.Command {
	var deleteBranch string

	cmd := &cobra.Command{
		Use:   "branch [name [start]]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if deleteBranch != "" {
				if err := r.DeleteBranch(deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			if len(args) > 0 {
				start := "HEAD"
				if len(args) == 2 {
					start = args[1]
				}
				target, err := resolveCommit(r, start)
				if err != nil {
					return err
				}
				return r.CreateBranch(args[0], target)
			}

			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			current, _ := r.CurrentBranch()
			for _, b := range branches {
				if b == current {
					fmt.Fprintf(out, "* %s\n", b)
				} else {
					fmt.Fprintf(out, "  %s\n", b)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	return cmd
}

func newCheckoutCmd(c *cli) *cobra.Command {
	var createBranch bool

	cmd := &cobra.Command{
		Use:   "checkout [-b] <branch|revision>",
		Short: "Switch branches or detach HEAD at a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			r, err := c.open()
			if err != nil {
				return err
			}

			if createBranch {
				head, err := resolveCommit(r, "HEAD")
				if err != nil {
					return err
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
			}
			if err := r.Checkout(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			branch, _ := r.CurrentBranch()
			switch {
			case createBranch:
				fmt.Fprintf(out, "switched to new branch '%s'\n", target)
			case branch == "":
				head, _ := r.HeadCommit()
				fmt.Fprintf(out, "HEAD is now at %s\n", head.Short())
			default:
				fmt.Fprintf(out, "switched to branch '%s'\n", branch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create and switch to a new branch")
	return cmd
}

// resolveCommit resolves rev and checks that it names a commit.
func resolveCommit(r *repo.Repo, rev string) (object.Hash, error) {
	h, err := r.ResolveRevision(rev)
	if err != nil {
		return "", err
	}
	if _, err := r.Store.ReadCommit(h); err != nil {
		return "", fmt.Errorf("%s: %w", rev, err)
	}
	return h, nil
}
