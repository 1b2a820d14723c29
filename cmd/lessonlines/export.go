package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/core/domain"
	"github.com/spf13/cobra"
)

func NewExportCommand(opts *RootOptions) *cobra.Command {
	var timelineID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a timeline and its entries as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(timelineID)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --timeline", err)
			}

			repo, err := opts.openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			timeline, err := repo.GetTimeline(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load timeline", err)
			}
			if timeline == nil {
				return WrapExitError(ExitFailure, "export failed", fmt.Errorf("timeline %s: %w", id, domain.ErrNotFound))
			}
			entries, err := repo.ListEntries(cmd.Context(), id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load entries", err)
			}
			if entries == nil {
				entries = []domain.TimelineEntry{}
			}
			timeline.Entries = entries

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(timeline)
		},
	}

	cmd.Flags().StringVar(&timelineID, "timeline", "", "timeline id")
	_ = cmd.MarkFlagRequired("timeline")
	return cmd
}
