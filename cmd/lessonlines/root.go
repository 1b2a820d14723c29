package main

import (
	"log/slog"

	"github.com/lessonlines/lessonlines/pkg/adapters/repository/sqlite"
	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	DatabaseURL string
	LogLevel    string

	cfg    *config.Config
	logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "lessonlines",
		Short:         "LessonLines operations",
		Long:          "Database and catalog maintenance for the LessonLines timeline service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if opts.DatabaseURL != "" {
				cfg.DatabaseURL = opts.DatabaseURL
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			opts.cfg = cfg
			opts.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", "", "database URL (default $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (default $LOG_LEVEL)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// openRepo opens the configured database, applying the schema
func (o *RootOptions) openRepo() (*sqlite.Repository, error) {
	repo, err := sqlite.Open(o.cfg.DatabaseURL)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return repo, nil
}
