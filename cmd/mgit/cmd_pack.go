package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newPackCmd(c *cli) *cobra.Command {
	var reachable bool

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Bundle loose objects into a pack archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			summary, err := r.Pack(repo.PackOptions{ReachableOnly: reachable})
			if errors.Is(err, object.ErrEmptyStore) {
				fmt.Fprintln(out, "nothing to pack")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "packed %d object(s) into %s (%s)\n",
				summary.Objects, summary.Name, humanize.Bytes(uint64(summary.Bytes)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reachable, "reachable", false, "only pack objects reachable from refs and HEAD")
	return cmd
}

func newUnpackCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack <archive|->",
		Short: "Store every object of a pack archive as a loose object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("unpack: %w", err)
			}

			r, err := c.open()
			if err != nil {
				return err
			}
			n, err := r.Unpack(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unpacked %d new object(s) from %s\n", n, humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
}

func newVerifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-hash every loose object and report corruption",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			summary, err := r.Verify()
			if err != nil {
				return err
			}
			packs, err := r.ListPacks()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: verified %d loose object(s), %s; %d pack archive(s)\n",
				summary.LooseObjects, humanize.Bytes(uint64(summary.Bytes)), len(packs))
			return nil
		},
	}
}
