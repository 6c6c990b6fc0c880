package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hugo-drive-sync/pkg/services"
)

var (
	publishForce     bool
	publishSkipBuild bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build the site and push synced content",
	Long: `Builds the Hugo site and commits and pushes the synced content directory,
but only when the last sync left a change marker (or --force is given).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		publisher := services.NewPublisher(cfg, log)
		out, err := publisher.Publish(cmd.Context(), "", services.PublishOptions{
			Force:     publishForce,
			SkipBuild: publishSkipBuild,
		})
		if out != "" {
			fmt.Fprint(cmd.OutOrStdout(), out)
		}

		switch {
		case errors.Is(err, services.ErrNoContentChange):
			log.Info().Str("marker", cfg.MarkerFile).Msg("No content change, skipping publish")
			return nil
		case errors.Is(err, services.ErrNothingToPublish):
			log.Info().Msg("Working tree already matches, nothing to push")
			return nil
		case err != nil:
			return err
		}
		log.Info().Str("branch", cfg.Git.Branch).Msg("Published")
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishForce, "force", false, "publish even without a change marker")
	publishCmd.Flags().BoolVar(&publishSkipBuild, "skip-build", false, "do not run hugo before pushing")
	rootCmd.AddCommand(publishCmd)
}
