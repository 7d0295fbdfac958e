package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize every name's backup instances",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := opts.repository()
			if err != nil {
				return err
			}

			report, err := repo.Status()
			if err != nil {
				return err
			}

			for _, st := range report {
				state := "complete"
				if st.Incomplete {
					state = "incomplete"
				}
				if st.ExpectedOK {
					fmt.Printf("%s\t%s\t%3d%%\t%s / %s\t%s\n",
						st.Name, st.Timestamp, st.Percentage,
						humanize.IBytes(uint64(st.Actual)), humanize.IBytes(uint64(st.Expected)), state)
				} else {
					fmt.Printf("%s\t%s\t%3d%%\t%s / unknown\t%s\n",
						st.Name, st.Timestamp, st.Percentage, humanize.IBytes(uint64(st.Actual)), state)
				}
			}
			return nil
		},
	}
}
