package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/repo"
)

func newHashObjectCmd(c *cli) *cobra.Command {
	var write, stdin bool

	cmd := &cobra.Command{
		Use:   "hash-object [-w] (--stdin | <file>)",
		Short: "Compute a blob hash, optionally storing the blob",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			switch {
			case stdin:
				data, err = io.ReadAll(cmd.InOrStdin())
			case len(args) == 1:
				data, err = os.ReadFile(args[0])
			default:
				return fmt.Errorf("hash-object: a file or --stdin is required")
			}
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			if !write {
				fmt.Fprintln(cmd.OutOrStdout(), object.HashObject(object.TypeBlob, data))
				return nil
			}
			r, err := c.open()
			if err != nil {
				return err
			}
			h, err := r.HashObject(data, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "store the blob in the object store")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read content from standard input")
	return cmd
}

func newCatFileCmd(c *cli) *cobra.Command {
	var showType, showSize, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file (-t | -s | -p) <object>",
		Short: "Show the type, size or content of an object",
		Long:  "The object is any revision, optionally followed by \":path\" to name an entry inside its tree.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if countTrue(showType, showSize, pretty) != 1 {
				return fmt.Errorf("cat-file: exactly one of -t, -s or -p is required")
			}
			r, err := c.open()
			if err != nil {
				return err
			}
			h, err := r.ResolveObject(args[0])
			if err != nil {
				return err
			}
			objType, body, err := r.Store.Get(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(body))
			case objType == object.TypeTree:
				return printTree(out, r, h)
			default:
				_, err = out.Write(body)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object body size in bytes")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "print the object content")
	return cmd
}

func newWriteTreeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Store the working tree as tree objects and print the root hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			h, err := r.WriteTree()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newLsTreeCmd(c *cli) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] <tree-ish>",
		Short: "List the entries of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.open()
			if err != nil {
				return err
			}
			h, err := r.ResolveObject(args[0])
			if err != nil {
				return err
			}
			tree, err := treeOf(r, h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !recursive {
				return printTree(out, r, tree)
			}
			entries, err := r.FlattenTree(tree)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, object.TypeBlob, e.Hash, e.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list every file below the tree")
	return cmd
}

// treeOf peels a commit to its root tree.
func treeOf(r *repo.Repo, h object.Hash) (object.Hash, error) {
	objType, _, err := r.Store.Get(h)
	if err != nil {
		return "", err
	}
	switch objType {
	case object.TypeTree:
		return h, nil
	case object.TypeCommit:
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return "", err
		}
		return c.TreeHash, nil
	}
	return "", fmt.Errorf("%s is a %s, not a tree-ish", h.Short(), objType)
}

func printTree(out io.Writer, r *repo.Repo, h object.Hash) error {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		kind := object.TypeBlob
		if e.IsDir() {
			kind = object.TypeTree
		}
		fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
	}
	return nil
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
