package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	gcc "seatsathi-workers/internal/workers/counseling/get-college-cutoff"
)

func newCollegeCmd(root *rootOptions) *cobra.Command {
	var input gcc.Input

	cmd := &cobra.Command{
		Use:   "college <name>",
		Short: "Show one college's cutoffs for a category",
		Example: `  counsel college rvce --category GM --course cse
  counsel college "Siddaganga Institute" --category SCG`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.CollegeName = strings.Join(args, " ")

			svc, err := root.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			handler := gcc.NewHandler(gcc.LoadConfig(), svc.Engine, svc.LookupCache, nil, root.logger())
			out, err := handler.Execute(cmd.Context(), &input)
			if err != nil {
				return err
			}

			if root.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			if !out.Found() {
				fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), category %s\n\n", out.CollegeName, out.CollegeCode, out.Category)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BRANCH\t2025\t2024")
			for _, b := range out.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Branch, b.Cutoff2025, b.Cutoff2024)
			}
			return w.Flush()
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input.Category, "category", "GM", "reservation category")
	flags.StringVar(&input.Course, "course", "", "optional course filter; empty lists every branch")
	return cmd
}
