package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odvcencio/mgit/pkg/repo"
)

func newInitCmd(c *cli) *cobra.Command {
	var compression string
	var name, email string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty mgit repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			cfg := repo.DefaultConfig()
			if compression != "" {
				cfg.Core.Compression = compression
			}
			cfg.User.Name = name
			cfg.User.Email = email

			r, err := repo.Init(path, cfg, repo.WithLogger(c.log))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty mgit repository in %s (%s)\n",
				filepath.Join(r.RootDir, repo.MetaDirName)+string(filepath.Separator), cfg.Core.Compression)
			return nil
		},
	}

	cmd.Flags().StringVar(&compression, "compression", "", "object compression: zlib, zstd or lz4 (default zlib)")
	cmd.Flags().StringVar(&name, "name", "", "user name recorded in config.toml")
	cmd.Flags().StringVar(&email, "email", "", "user email recorded in config.toml")
	return cmd
}
