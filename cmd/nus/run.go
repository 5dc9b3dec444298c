package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"NewsCurator/internal/app"
)

const testModeConcurrency = 2

func newRunCmd(opts *rootOptions) *cobra.Command {
	var testMode bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate the digest once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if testMode {
				opts.logger.Info("running in test mode", "classification_concurrency", testModeConcurrency)
				cfg.Classification.MaxConcurrent = testModeConcurrency
			}

			application, err := app.New(cmd.Context(), cfg, opts.logger)
			if err != nil {
				return err
			}
			defer application.Close()

			digest, err := application.Run(cmd.Context())
			if err != nil {
				opts.logger.Error("fatal error", "error", err)
				return err
			}

			opts.logger.Info("digest generated successfully",
				"articles", digest.ArticleCount(),
				"success_rate", fmt.Sprintf("%.1f%%", digest.SuccessRate()*100))
			return nil
		},
	}

	cmd.Flags().BoolVar(&testMode, "test", false, "limit model concurrency for local testing")
	return cmd
}
