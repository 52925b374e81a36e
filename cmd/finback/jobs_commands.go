package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and cancel queued jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newJobsListCommand(ctx))
	cmd.AddCommand(newJobsShowCommand(ctx))
	cmd.AddCommand(newJobsCancelCommand(ctx))
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		clustering  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processing jobs, or clustering jobs with --clustering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				out := cmd.OutOrStdout()
				if clustering {
					jobs, err := svc.ListClusteringJobs(runCtx, statuses...)
					if err != nil {
						return err
					}
					if len(jobs) == 0 {
						fmt.Fprintln(out, "No clustering jobs found")
						return nil
					}
					rows := make([][]string, 0, len(jobs))
					for _, job := range jobs {
						rows = append(rows, []string{
							job.ID,
							job.Status,
							strconv.Itoa(len(job.EmbeddingSetIDs)),
							job.CreatedAt,
						})
					}
					renderTable(out, []string{"ID", "Status", "Sets", "Created"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
					return nil
				}

				jobs, err := svc.ListProcessingJobs(runCtx, statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No processing jobs found")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.ID,
						job.AudioFileID,
						job.Status,
						job.ModelName,
						job.CreatedAt,
					})
				}
				renderTable(out, []string{"ID", "Audio", "Status", "Model", "Created"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft})
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&statusFlags, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&clustering, "clustering", false, "List clustering jobs instead of processing jobs")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the details of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				out := cmd.OutOrStdout()

				if job, err := svc.DescribeProcessingJob(runCtx, id); err != nil {
					return err
				} else if job != nil {
					printProcessingJob(out, job)
					return nil
				}

				job, err := svc.DescribeClusteringJob(runCtx, id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("no job found with id %s", id)
				}
				printClusteringJob(out, job)

				clusters, err := svc.ListClusters(runCtx, job.ID)
				if err != nil {
					return err
				}
				if len(clusters) > 0 {
					fmt.Fprintln(out)
					rows := make([][]string, 0, len(clusters))
					for _, cluster := range clusters {
						label := strconv.Itoa(cluster.Label)
						if cluster.Label == -1 {
							label = "noise"
						}
						rows = append(rows, []string{label, strconv.Itoa(cluster.Size), cluster.ID})
					}
					renderTable(out, []string{"Label", "Size", "Cluster ID"}, rows,
						[]columnAlignment{alignLeft, alignRight, alignLeft})
				}
				return nil
			})
		},
	}
}

func newJobsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				out := cmd.OutOrStdout()

				if job, changed, err := svc.CancelProcessingJob(runCtx, id); err != nil {
					return err
				} else if job != nil {
					if changed {
						fmt.Fprintf(out, "Processing job %s canceled\n", job.ID)
					} else {
						fmt.Fprintf(out, "Processing job %s already %s\n", job.ID, job.Status)
					}
					return nil
				}

				job, changed, err := svc.CancelClusteringJob(runCtx, id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("no job found with id %s", id)
				}
				if changed {
					fmt.Fprintf(out, "Clustering job %s canceled\n", job.ID)
				} else {
					fmt.Fprintf(out, "Clustering job %s already %s\n", job.ID, job.Status)
				}
				return nil
			})
		},
	}
}

func printProcessingJob(out io.Writer, job *api.ProcessingJobView) {
	printDetail(out, "ID", job.ID)
	printDetail(out, "Type", "processing")
	printDetail(out, "Status", job.Status)
	printDetail(out, "Audio file", job.AudioFileID)
	printDetail(out, "Model", job.ModelName)
	printDetail(out, "Window", formatWindow(job.WindowSeconds))
	printDetail(out, "Sample rate", strconv.Itoa(job.SampleRate)+" Hz")
	printDetail(out, "Signature", job.EncodingSignature)
	if len(job.FeatureConfig) > 0 {
		printDetail(out, "Features", formatParams(job.FeatureConfig))
	}
	if job.ErrorMessage != "" {
		printDetail(out, "Error", job.ErrorMessage)
	}
	if job.WarningMessage != "" {
		printDetail(out, "Warning", job.WarningMessage)
	}
	printDetail(out, "Created", job.CreatedAt)
	printDetail(out, "Updated", job.UpdatedAt)
}

func printClusteringJob(out io.Writer, job *api.ClusteringJobView) {
	printDetail(out, "ID", job.ID)
	printDetail(out, "Type", "clustering")
	printDetail(out, "Status", job.Status)
	printDetail(out, "Sets", strings.Join(job.EmbeddingSetIDs, ", "))
	if len(job.Params) > 0 {
		printDetail(out, "Params", formatParams(job.Params))
	}
	if len(job.Metrics) > 0 {
		printDetail(out, "Metrics", formatParams(job.Metrics))
	}
	if job.ErrorMessage != "" {
		printDetail(out, "Error", job.ErrorMessage)
	}
	printDetail(out, "Created", job.CreatedAt)
	printDetail(out, "Updated", job.UpdatedAt)
}

func printDetail(out io.Writer, label, value string) {
	fmt.Fprintf(out, "%-12s %s\n", label+":", value)
}

// formatParams renders a params or metrics map as stable key=value text.
func formatParams(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, values[key]))
	}
	return strings.Join(parts, " ")
}
