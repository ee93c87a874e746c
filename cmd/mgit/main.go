package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/repo"
)

const version = "0.1.0-dev"

// errMergeConflicts makes the process exit non-zero after a merge has
// reported its conflicts.
var errMergeConflicts = errors.New("merge stopped on conflicts; nothing was changed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	verbose bool
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "mgit",
		Short:         "Minimal content-addressed version control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(c.verbose)
			if err != nil {
				return err
			}
			c.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.log.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log repository operations to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(c))
	root.AddCommand(newHashObjectCmd(c))
	root.AddCommand(newCatFileCmd(c))
	root.AddCommand(newAddCmd(c))
	root.AddCommand(newRmCmd(c))
	root.AddCommand(newResetCmd(c))
	root.AddCommand(newStatusCmd(c))
	root.AddCommand(newDiffCmd(c))
	root.AddCommand(newCommitCmd(c))
	root.AddCommand(newVerifyCommitCmd(c))
	root.AddCommand(newLogCmd(c))
	root.AddCommand(newBranchCmd(c))
	root.AddCommand(newCheckoutCmd(c))
	root.AddCommand(newMergeCmd(c))
	root.AddCommand(newMergeBaseCmd(c))
	root.AddCommand(newWriteTreeCmd(c))
	root.AddCommand(newLsTreeCmd(c))
	root.AddCommand(newTagCmd(c))
	root.AddCommand(newReflogCmd(c))
	root.AddCommand(newPackCmd(c))
	root.AddCommand(newUnpackCmd(c))
	root.AddCommand(newVerifyCmd(c))
	return root
}

// newLogger returns a development logger at debug level when verbose is set
// and a production logger (info and above, so repository debug output is
// dropped) otherwise. Both write to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func (c *cli) open() (*repo.Repo, error) {
	return repo.Open(".", repo.WithLogger(c.log))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mgit "+version)
		},
	}
}
