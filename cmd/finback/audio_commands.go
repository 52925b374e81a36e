package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"finback/internal/api"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	audioCmd := &cobra.Command{
		Use:   "audio",
		Short: "Ingest and inspect audio recordings",
	}

	audioCmd.AddCommand(newAudioAddCommand(ctx))
	audioCmd.AddCommand(newAudioListCommand(ctx))

	return audioCmd
}

func newAudioAddCommand(ctx *commandContext) *cobra.Command {
	var folderPath string

	cmd := &cobra.Command{
		Use:   "add <file>...",
		Short: "Copy local audio files into managed storage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					source, err := os.Open(arg)
					if err != nil {
						return fmt.Errorf("open %s: %w", arg, err)
					}
					view, created, err := svc.IngestAudio(runCtx, api.IngestAudioRequest{
						Filename:   filepath.Base(arg),
						FolderPath: folderPath,
						Source:     source,
					})
					source.Close()
					if err != nil {
						return fmt.Errorf("ingest %s: %w", arg, err)
					}
					if created {
						fmt.Fprintf(out, "Added %s as %s\n", arg, view.ID)
					} else {
						fmt.Fprintf(out, "Unchanged %s; identical content already stored as %s\n", arg, view.ID)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&folderPath, "folder", "", "Logical folder recorded with the files")
	return cmd
}

func newAudioListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested audio files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(runCtx context.Context, svc *api.Service) error {
				files, err := svc.ListAudioFiles(runCtx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "No audio files ingested")
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, file := range files {
					rows = append(rows, []string{
						file.ID,
						file.Filename,
						file.FolderPath,
						shortChecksum(file.ChecksumSHA256),
						file.CreatedAt,
					})
				}
				renderTable(out,
					[]string{"ID", "Filename", "Folder", "Checksum", "Created"},
					rows, nil)
				return nil
			})
		},
	}
}
