package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hugo-drive-sync/pkg/config"
)

// ErrNothingToPublish is returned when the synced content has no staged changes.
var ErrNothingToPublish = errors.New("nothing to publish")

func authenticatedURL(remoteURL, token string) (string, error) {
	u, err := url.Parse(remoteURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("token auth needs an http(s) remote, got %q", remoteURL)
	}
	u.User = url.UserPassword("oauth2", token)
	return u.String(), nil
}

func redact(output, token, authURL, remoteURL string) string {
	if authURL != "" {
		output = strings.ReplaceAll(output, authURL, remoteURL)
	}
	if token != "" {
		output = strings.ReplaceAll(output, token, "***")
	}
	return output
}

// ExecuteGitWithToken runs git with the named remote replaced by a
// token-authenticated URL. The token never appears in the returned output.
func ExecuteGitWithToken(ctx context.Context, dir, remote, token string, args ...string) (string, error) {
	cmdGetURL := exec.CommandContext(ctx, "git", "remote", "get-url", remote)
	cmdGetURL.Dir = dir
	outURL, err := cmdGetURL.Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteURL := strings.TrimSpace(string(outURL))

	authURL, err := authenticatedURL(remoteURL, token)
	if err != nil {
		return "Invalid remote url", err
	}

	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == remote {
			newArgs[i] = authURL
		}
	}

	cmd := exec.CommandContext(ctx, "git", newArgs...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return redact(string(output), token, authURL, remoteURL), err
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// PullRepo fast-forwards the repository from the configured remote.
func PullRepo(ctx context.Context, cfg config.Config, token string) (string, error) {
	if token == "" {
		return runGit(ctx, cfg.RepoPath, "pull", "--ff-only", cfg.Git.Remote, cfg.Git.Branch)
	}
	return ExecuteGitWithToken(ctx, cfg.RepoPath, cfg.Git.Remote, token, "pull", "--ff-only", cfg.Git.Remote, cfg.Git.Branch)
}

// PublishRepo commits the synced content directory and pushes it. Without a
// token the remote's own credentials are used.
func PublishRepo(ctx context.Context, cfg config.Config, token string) (string, error) {
	var log strings.Builder

	content, err := filepath.Rel(cfg.RepoPath, cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("output dir outside repository: %w", err)
	}

	out, err := runGit(ctx, cfg.RepoPath, "add", "--all", "--", content)
	log.WriteString(out)
	if err != nil {
		return log.String(), fmt.Errorf("git add: %w", err)
	}

	// exit status 1 means there are staged changes
	if _, err := runGit(ctx, cfg.RepoPath, "diff", "--cached", "--quiet"); err == nil {
		return log.String(), ErrNothingToPublish
	}

	msg := fmt.Sprintf("Sync from Google Drive: %s", time.Now().Format("2006-01-02 15:04:05"))
	out, err = runGit(ctx, cfg.RepoPath,
		"-c", "user.email="+cfg.Git.UserEmail,
		"-c", "user.name="+cfg.Git.UserName,
		"commit", "-m", msg,
	)
	log.WriteString(out)
	if err != nil {
		return log.String(), fmt.Errorf("git commit: %w", err)
	}

	if token == "" {
		out, err = runGit(ctx, cfg.RepoPath, "push", cfg.Git.Remote, "HEAD:"+cfg.Git.Branch)
	} else {
		out, err = ExecuteGitWithToken(ctx, cfg.RepoPath, cfg.Git.Remote, token, "push", cfg.Git.Remote, "HEAD:"+cfg.Git.Branch)
	}
	log.WriteString(out)
	if err != nil {
		return log.String(), fmt.Errorf("git push: %w", err)
	}
	return log.String(), nil
}
