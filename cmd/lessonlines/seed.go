package main

import (
	"fmt"
	"os"

	"github.com/lessonlines/lessonlines/pkg/core/services"
	"github.com/spf13/cobra"
)

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load topics, tags and events from a YAML catalog",
		Long: `Load a catalog file into the database.

Topics are matched by slug and tags by name, so re-running a seed updates
them in place. Events are always inserted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open catalog", err)
			}
			defer f.Close()

			catalog, err := services.ParseCatalog(f)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid catalog", err)
			}

			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			res, err := services.Seed(cmd.Context(), repo, catalog)
			if err != nil {
				return WrapExitError(ExitFailure, "seed failed", err)
			}
			opts.logger.Info("catalog seeded",
				"topics", res.Topics, "tags", res.Tags, "standards", res.Standards,
				"events", res.Events, "skipped", res.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d topics, %d tags, %d standards, %d events (%d already present)\n",
				res.Topics, res.Tags, res.Standards, res.Events, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
