package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shasplit/shasplit/internal/progress"
)

func newRecoverCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <name> [timestamp]",
		Short: "Write a backup instance to stdout, verifying its digest",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			repo, err := opts.repository()
			if err != nil {
				return err
			}

			bar := progress.New(!opts.noProgress, -1)
			bar.Describe(args[0])
			repo.SetProgress(bar)

			if len(args) == 2 {
				return repo.Recover(args[0], args[1], os.Stdout)
			}
			return repo.RecoverLatest(args[0], os.Stdout)
		},
	}
}
