package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"NewsCurator/internal/config"
	"NewsCurator/internal/logging"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "nus",
		Short: "News curation: fetch feeds, classify with an LLM, render a static digest",
		Long: `nus fetches a configured list of RSS/Atom feeds, asks a language model to
categorize every article, drops clickbait and duplicates, and writes a single
static HTML digest.

Example usage:
  nus run                      # one complete run
  nus run --test               # lower model concurrency for local testing
  nus validate                 # check config, feeds and prompt without network
  nus watch                    # repeat runs on scheduler.interval
  nus history --limit 10       # recent runs from the ledger`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath, opts.envFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Logging.Level = opts.logLevel
			}
			opts.cfg = cfg
			opts.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $NUS_CONFIG)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}
