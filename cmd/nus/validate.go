package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"NewsCurator/internal/app"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check settings, the feed list and the prompt template without fetching",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := app.ValidateInputs(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "feeds:    %d (%d enabled)\n", summary.Feeds, summary.EnabledFeeds)
			fmt.Fprintf(out, "prompt:   %d bytes\n", summary.TemplateBytes)
			fmt.Fprintf(out, "model:    %s (%s)\n", summary.Model, summary.Provider)
			fmt.Fprintf(out, "output:   %s\n", summary.OutputPath)
			return nil
		},
	}
}
