// Package cmd contains the hugo-drive-sync commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hugo-drive-sync/pkg/config"
	"hugo-drive-sync/pkg/logger"
)

// ErrRunFailed is returned when at least one document failed; main maps it to exit status 1.
var ErrRunFailed = errors.New("sync finished with failures")

var (
	verbose bool
	cfg     config.Config
	log     zerolog.Logger
	version = "dev"

	logReady bool
	errOut   io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "hugo-drive-sync",
	Short: "Sync Google Docs into a Hugo content tree",
	Long: `hugo-drive-sync downloads the Google Docs of a Drive folder as Markdown,
normalizes their front matter and images, and writes them into a Hugo site.

Example usage:
  hugo-drive-sync              # same as "sync"
  hugo-drive-sync sync         # one sync run, exit 1 on any failure
  hugo-drive-sync publish      # build and push if the last sync changed content
  hugo-drive-sync serve        # admin API with GitHub login`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runSync,
}

// ExecuteContext runs the root command; cancelling ctx stops a running sync or server.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ReportError logs a command failure through the configured logger. Before
// configuration has loaded there is no logger, so it goes to stderr.
func ReportError(err error) {
	if !logReady {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return
	}
	log.Error().Err(err).Msg("Command failed")
}

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func initConfig() error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if verbose {
		loaded.Log.Level = "debug"
	}

	l, err := logger.New(loaded.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cfg = loaded
	log = l.With().Str("version", version).Logger()
	logReady = true
	return nil
}
