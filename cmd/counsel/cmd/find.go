package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	fmc "seatsathi-workers/internal/workers/counseling/find-matching-colleges"
)

func newFindCmd(root *rootOptions) *cobra.Command {
	var input fmc.Input

	cmd := &cobra.Command{
		Use:   "find",
		Short: "List colleges and branches matching a rank",
		Example: `  counsel find --rank 4500 --category GM --course cse
  counsel find --rank 12000 --category 2AG --course "cse, ece" --location "bangalore, mysore"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := root.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			handler := fmc.NewHandler(fmc.LoadConfig(), svc.Engine, svc.MatchCache, nil, root.logger())
			out, err := handler.Execute(cmd.Context(), &input)
			if err != nil {
				return err
			}

			if root.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tCOLLEGE\tBRANCH\t2025\t2024\tCHANCE\tLOCATION")
			for i, r := range out.Recommendations {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					i+1, r.CollegeName, r.Branch, r.Cutoff2025, r.Cutoff2024, r.Chance, r.Location)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d result(s), %d record(s) scanned, strategy %s, %dms\n",
				out.Count, out.TotalRecordsScanned, out.Strategy, out.QueryTimeMs)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&input.Rank, "rank", 0, "KCET rank")
	flags.StringVar(&input.Category, "category", "GM", "reservation category, e.g. GM, 2AG, SCK")
	flags.StringVar(&input.Course, "course", "", "course or comma-separated courses, e.g. cse or \"cse, ece\"")
	flags.StringVar(&input.Location, "location", "", "optional location or comma-separated locations")
	_ = cmd.MarkFlagRequired("rank")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
