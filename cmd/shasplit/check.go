package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify repository integrity",
		Long: `Walks every name and instance, checking that every part symlink resolves
to an existing blob. With --deep, also re-derives the whole-stream digest of
every completed instance and compares it against the stored hash.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := opts.repository()
			if err != nil {
				return err
			}

			issues, err := repo.Check(deep)
			if err != nil {
				return err
			}

			for _, issue := range issues {
				if issue.Path != "" {
					fmt.Printf("%s/%s\t%s\t%s\n", issue.Name, issue.Timestamp, issue.Path, issue.Problem)
				} else {
					fmt.Printf("%s/%s\t%s\n", issue.Name, issue.Timestamp, issue.Problem)
				}
			}

			if len(issues) > 0 {
				return fmt.Errorf("%d integrity issue(s) found", len(issues))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "also verify whole-stream digests of completed instances")
	return cmd
}
