package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"finback/internal/api"
	"finback/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect queue health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newQueueStatusCommand(ctx))
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show job counts per lane and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				stats, err := svc.QueueSnapshot(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				var rows [][]string
				for _, status := range queue.AllStatuses() {
					rows = append(rows, []string{
						"processing", string(status), strconv.Itoa(stats.Processing[string(status)]),
					})
				}
				for _, status := range queue.AllStatuses() {
					rows = append(rows, []string{
						"clustering", string(status), strconv.Itoa(stats.Clustering[string(status)]),
					})
				}
				renderTable(out, []string{"Lane", "Status", "Jobs"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight})

				fmt.Fprintf(out, "Audio files: %d\n", stats.AudioFiles)
				fmt.Fprintf(out, "Embedding sets: %d\n", stats.EmbeddingSets)
				return nil
			})
		},
	}
}
