package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var modelName string
	var windowSeconds float64
	var sampleRate int
	var features []string

	cmd := &cobra.Command{
		Use:   "submit <audio-id>",
		Short: "Queue embedding extraction for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			featureConfig, err := parseKeyValues(features)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				job, skipped, err := svc.CreateProcessingJob(runCtx, api.CreateProcessingJobRequest{
					AudioFileID:   args[0],
					ModelName:     modelName,
					WindowSeconds: windowSeconds,
					SampleRate:    sampleRate,
					FeatureConfig: featureConfig,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if skipped {
					fmt.Fprintf(out, "Job %s recorded as complete; embeddings already exist for signature %s\n",
						job.ID, job.EncodingSignature)
					return nil
				}
				fmt.Fprintf(out, "Job %s queued with model %s (window %s, rate %d Hz)\n",
					job.ID, job.ModelName, formatWindow(job.WindowSeconds), job.SampleRate)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&modelName, "model", "", "Embedding model name (defaults to the registry default)")
	cmd.Flags().Float64Var(&windowSeconds, "window", 0, "Window length in seconds")
	cmd.Flags().IntVar(&sampleRate, "rate", 0, "Target sample rate in Hz")
	cmd.Flags().StringArrayVar(&features, "feature", nil, "Feature config entry as key=value (repeatable)")
	return cmd
}
