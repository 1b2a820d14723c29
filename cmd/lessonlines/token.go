package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/adapters/handler"
	"github.com/spf13/cobra"
)

func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		userID  string
		isAdmin bool
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development JWT for a user id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --user", err)
			}
			token, err := handler.IssueToken(opts.cfg.JWTSecret, id, isAdmin, ttl)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to sign token", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (UUID)")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin access")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
