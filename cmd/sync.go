package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"hugo-drive-sync/pkg/services"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync from Google Drive",
	Long: `Lists the configured Drive folder, downloads changed documents, removes
articles whose document disappeared and updates the change marker.

Exits with status 1 if the listing failed or any document failed.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	log.Info().Str("folder_id", cfg.FolderID).Str("output_dir", cfg.OutputDir).Msg("Starting sync")
	report, err := a.runner.Run(ctx)
	if report != nil {
		if renderErr := services.RenderSummary(os.Stdout, report); renderErr != nil {
			log.Warn().Err(renderErr).Msg("Could not print summary")
		}
	}
	if err != nil {
		return err
	}
	if report.Failed() {
		for _, o := range report.Failures() {
			log.Error().Err(o.Err).Str("file_id", o.FileID).Str("path", o.Path).Msg("Document failed")
		}
		return ErrRunFailed
	}
	return nil
}
