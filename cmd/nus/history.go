package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"NewsCurator/internal/app"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := app.RecentRuns(cmd.Context(), opts.cfg, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GENERATED\tARTICLES\tFETCHED\tFILTERED\tDUPLICATES\tERRORS\tSUCCESS\tELAPSED\tRUN")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%.1f%%\t%s\t%s\n",
					r.GeneratedAt.Local().Format("2006-01-02 15:04"),
					r.ArticleCount, r.TotalFetched, r.TotalFiltered, r.DuplicatesDropped,
					r.ErrorCount, r.SuccessRate*100, r.Elapsed.Round(time.Millisecond), r.RunID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
