package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newClusterCommand(ctx *commandContext) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "cluster <embedding-set-id>...",
		Short: "Queue clustering over one or more embedding sets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paramMap, err := parseKeyValues(params)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, err := svc.CreateClusteringJob(runCtx, api.CreateClusteringJobRequest{
					EmbeddingSetIDs: args,
					Params:          paramMap,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Clustering job %s queued over %d embedding set(s)\n",
					job.ID, len(job.EmbeddingSetIDs))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "Clustering parameter as key=value (repeatable)")
	return cmd
}
