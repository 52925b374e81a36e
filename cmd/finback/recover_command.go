package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Requeue running jobs abandoned by a crashed worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				recovered, err := svc.RecoverStaleJobs(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d stale job(s)\n", recovered)
				return nil
			})
		},
	}
}
