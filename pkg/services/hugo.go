package services

import (
	"context"
	"os/exec"

	"hugo-drive-sync/pkg/config"
)

func hugoArgs(cfg config.Config) []string {
	args := []string{
		"--source", cfg.RepoPath,
		"--destination", "public",
		"--cleanDestinationDir",
	}
	if cfg.Hugo.BaseURL != "" {
		args = append(args, "--baseURL", cfg.Hugo.BaseURL)
	}
	return args
}

// BuildSite runs hugo over the repository and returns its combined output.
func BuildSite(ctx context.Context, cfg config.Config) (string, error) {
	cmd := exec.CommandContext(ctx, cfg.Hugo.Binary, hugoArgs(cfg)...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
