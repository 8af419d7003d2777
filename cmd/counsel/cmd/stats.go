package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Build the index and report corpus counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Engine.Warm(cmd.Context()); err != nil {
				return err
			}
			stats := svc.Engine.Stats(cmd.Context())

			if root.asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "colleges: %d\nbranches: %d\ncutoffs:  %d\nstrategy: %s\n",
				stats.Colleges, stats.Branches, stats.Cutoffs, stats.Strategy)
			return nil
		},
	}
}
