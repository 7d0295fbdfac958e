package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shasplit/shasplit/internal/lvm"
	"github.com/shasplit/shasplit/internal/progress"
)

// newAddCmd builds both forms of "add": "add <name> <maxbackups>" and, when
// three positional args are given, "add <volumegroup> <name> <maxbackups>"
// (the LVM-snapshot variant).
func newAddCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name> <maxbackups> | add <volumegroup> <name> <maxbackups>",
		Short: "Ingest stdin as a new backup instance, then apply retention",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(_ *cobra.Command, args []string) error {
			repo, err := opts.repository()
			if err != nil {
				return err
			}

			bar := progress.New(!opts.noProgress, -1)
			bar.Describe(args[0])
			repo.SetProgress(bar)

			if len(args) == 2 {
				maxBackups, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid maxbackups %q: %w", args[1], err)
				}
				return repo.Add(args[0], maxBackups, os.Stdin)
			}

			maxBackups, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid maxbackups %q: %w", args[2], err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			snap := lvm.NewCommandSnapshotter(opts.log)
			return repo.AddLVM(ctx, snap, args[0], args[1], maxBackups)
		},
	}
	return cmd
}
