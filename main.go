package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hugo-drive-sync/cmd"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetVersion(version)
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.ReportError(err)
		stop()
		os.Exit(1)
	}
}
