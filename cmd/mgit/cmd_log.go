package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newLogCmd(c *cli) *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show first-parent commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}

			var start object.Hash
			if len(args) == 1 {
				start, err = r.ResolveRevision(args[0])
			} else {
				start, err = r.HeadCommit()
			}
			if err != nil {
				return err
			}

			entries, err := r.Log(start, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no commits yet")
				return nil
			}

			headHash, _ := r.HeadCommit()
			branchName, _ := r.CurrentBranch()
			for _, e := range entries {
				printLogEntry(out, e, buildDecoration(e.Hash, headHash, branchName), oneline)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show (0 for all)")
	return cmd
}

func printLogEntry(out io.Writer, e repo.LogEntry, decoration string, oneline bool) {
	c := e.Commit
	if oneline {
		if decoration != "" {
			fmt.Fprintf(out, "%s %s %s\n", e.Hash.Short(), decoration, firstLine(c.Message))
		} else {
			fmt.Fprintf(out, "%s %s\n", e.Hash.Short(), firstLine(c.Message))
		}
		return
	}

	if decoration != "" {
		fmt.Fprintf(out, "commit %s %s\n", e.Hash, decoration)
	} else {
		fmt.Fprintf(out, "commit %s\n", e.Hash)
	}
	if len(c.Parents) > 1 {
		shorts := make([]string, len(c.Parents))
		for i, p := range c.Parents {
			shorts[i] = p.Short()
		}
		fmt.Fprintf(out, "Merge:  %s\n", strings.Join(shorts, " "))
	}
	name, when := splitIdentity(c.Author)
	fmt.Fprintf(out, "Author: %s\n", name)
	if !when.IsZero() {
		fmt.Fprintf(out, "Date:   %s\n", when.Format("2006-01-02 15:04:05 -0700"))
	}
	fmt.Fprintln(out)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintln(out)
}

// buildDecoration returns a string like "(HEAD -> main)" if the commit is
// the current HEAD, or "" otherwise.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}

// splitIdentity separates "Name <email> <unix> <+zzzz>" into the name and
// email part and the timestamp. Identities without a parsable timestamp are
// returned whole with a zero time.
func splitIdentity(ident string) (string, time.Time) {
	fields := strings.Fields(ident)
	if len(fields) < 3 {
		return ident, time.Time{}
	}
	secs, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
	if err != nil {
		return ident, time.Time{}
	}
	when := time.Unix(secs, 0).UTC()
	if zone, err := time.Parse("-0700", fields[len(fields)-1]); err == nil {
		when = when.In(zone.Location())
	}
	return strings.Join(fields[:len(fields)-2], " "), when
}
