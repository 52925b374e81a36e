package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage registered embedding models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newModelsListCommand(ctx))
	cmd.AddCommand(newModelsAddCommand(ctx))
	return cmd
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered embedding models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				models, err := svc.ListModels(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(models) == 0 {
					fmt.Fprintln(out, "No models registered")
					return nil
				}
				rows := make([][]string, 0, len(models))
				for _, model := range models {
					rows = append(rows, []string{
						model.Name,
						model.DisplayName,
						model.Runtime,
						strconv.Itoa(model.VectorDim),
						model.InputFormat,
						yesNo(model.IsDefault),
					})
				}
				renderTable(out, []string{"Name", "Display", "Runtime", "Dim", "Input", "Default"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
				return nil
			})
		},
	}
}

func newModelsAddCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateModelRequest

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an embedding model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				model, err := svc.CreateModel(runCtx, req)
				if err != nil {
					return err
				}
				suffix := ""
				if model.IsDefault {
					suffix = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered model %s with runtime %s%s\n",
					model.Name, model.Runtime, suffix)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "Human readable name (defaults to the model name)")
	cmd.Flags().StringVar(&req.Runtime, "runtime", "", "Model runtime: synthetic or http")
	cmd.Flags().StringVar(&req.Endpoint, "endpoint", "", "Inference endpoint URL (required for http runtime)")
	cmd.Flags().IntVar(&req.VectorDim, "dim", 0, "Embedding vector dimension")
	cmd.Flags().StringVar(&req.InputFormat, "input-format", "", "Model input format: waveform or spectrogram")
	cmd.Flags().StringVar(&req.Description, "description", "", "Free form model description")
	cmd.Flags().BoolVar(&req.IsDefault, "default", false, "Make this model the default for new submissions")
	return cmd
}
