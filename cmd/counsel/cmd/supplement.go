package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	lsc "seatsathi-workers/internal/workers/counseling/load-supplementary-cutoffs"
)

// supplement is only useful with counseling.supplementary.enabled; without
// Redis the batch lives for this process only.
func newSupplementCmd(root *rootOptions) *cobra.Command {
	var (
		file    string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "supplement",
		Short: "Upload supplementary cutoff rows from a JSON file",
		Long: `Reads a JSON array of rows, each with code, name, branch, category and
cutoffRank (year and round optional), validates them all and stores them as
one batch. Use "-" to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(file)
			if err != nil {
				return err
			}
			defer in.Close()

			input := lsc.Input{Replace: replace}
			if err := json.NewDecoder(in).Decode(&input.Entries); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			svc, err := root.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			handler := lsc.NewHandler(lsc.LoadConfig(), svc.Supplementary, nil, root.logger(), svc.Caches()...)
			out, err := handler.Execute(cmd.Context(), &input)
			if err != nil {
				return err
			}

			if root.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d row(s) accepted, %d stored, %d cached result(s) purged\n",
				out.BatchID, out.Accepted, out.Total, out.CachePurged)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of rows, or - for stdin")
	cmd.Flags().BoolVar(&replace, "replace", false, "discard earlier batches first")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
