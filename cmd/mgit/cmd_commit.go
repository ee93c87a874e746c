package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/repo"
)

func newCommitCmd(c *cli) *cobra.Command {
	var message, author, signKey string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record the staged files as a new commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := c.open()
			if err != nil {
				return err
			}

			var signer repo.CommitSigner
			if signKey != "" {
				s, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				signer = s
				c.log.Sugar().Debugf("signing with %s", keyPath)
			}

			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, _ := r.CurrentBranch()
			if branch == "" {
				branch = "detached HEAD"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, h.Short(), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email> <unix> <+zzzz>")`)
	cmd.Flags().StringVar(&signKey, "sign", "", "sign with an SSH private key (default key from ~/.ssh when no path is given)")
	cmd.Flags().Lookup("sign").NoOptDefVal = defaultSigningKey
	return cmd
}

func newVerifyCommitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit [revision]",
		Short: "Check the SSH signature of a commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			h, err := r.ResolveRevision(rev)
			if err != nil {
				return err
			}
			commit, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			fingerprint, err := verifyCommitSignature(commit)
			if err != nil {
				return fmt.Errorf("verify-commit %s: %w", h.Short(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "good signature on %s from %s\n", h.Short(), fingerprint)
			return nil
		},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
