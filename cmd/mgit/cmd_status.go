package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/repo"
)

func newStatusCmd(c *cli) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if short {
				for _, e := range entries {
					fmt.Fprintf(out, "%c%c %s\n", e.IndexStatus.Code(), e.WorkStatus.Code(), e.Path)
				}
				return nil
			}

			head, err := r.HeadCommit()
			if err != nil {
				return err
			}
			branch, _ := r.CurrentBranch()
			switch {
			case branch == "":
				fmt.Fprintf(out, "HEAD detached at %s\n", head.Short())
			case head == "":
				fmt.Fprintf(out, "on %s (no commits yet)\n", branch)
			default:
				fmt.Fprintf(out, "on %s at %s\n", branch, head.Short())
			}

			var staged, unstaged, untracked []string
			for _, e := range entries {
				if e.IndexStatus == repo.StatusUntracked {
					untracked = append(untracked, "  "+e.Path)
					continue
				}
				switch e.IndexStatus {
				case repo.StatusNew:
					staged = append(staged, "  + "+e.Path)
				case repo.StatusModified:
					staged = append(staged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					staged = append(staged, "  - "+e.Path)
				}
				switch e.WorkStatus {
				case repo.StatusModified:
					unstaged = append(unstaged, "  ~ "+e.Path)
				case repo.StatusDeleted:
					unstaged = append(unstaged, "  - "+e.Path)
				}
			}

			printSection(cmd, "staged:", staged)
			printSection(cmd, "unstaged:", unstaged)
			printSection(cmd, "untracked:", untracked)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "two-letter status codes")
	return cmd
}

func printSection(cmd *cobra.Command, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, s := range lines {
		fmt.Fprintln(out, s)
	}
}
