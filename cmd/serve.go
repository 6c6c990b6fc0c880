package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"hugo-drive-sync/pkg/handlers"
	"hugo-drive-sync/pkg/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API",
	Long:  `Serves the admin API (sync, articles, build, publish) behind GitHub login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}

		job := services.NewSyncJob(a.runner, a.index)
		server := handlers.NewServer(cfg, job, a.index, a.store, services.NewPublisher(cfg, log), log)

		srv := &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Bind, cfg.Server.Port),
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("Admin server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down admin server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
