// Package gitutil provides a small client for working with Git repositories.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Client handles interacting with Git repositories.
type Client struct {
	Logger *slog.Logger
}

// NewClient returns a new Client instance.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Logger: logger}
}

// CloneTemp shallow-clones a repository into a temporary directory and returns
// the path together with a cleanup function.
func (c *Client) CloneTemp(ctx context.Context, repoURL string) (string, func(), error) {
	repoPath, err := os.MkdirTemp("", "qa-forge-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() {
		c.Logger.Info("cleaning up temporary repository", "path", repoPath)
		if removeErr := os.RemoveAll(repoPath); removeErr != nil {
			c.Logger.Error("failed to remove temp repo", "path", repoPath, "error", removeErr)
		}
	}

	c.Logger.InfoContext(ctx, "cloning repository", "url", repoURL, "path", repoPath)
	_, err = git.PlainCloneContext(ctx, repoPath, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}

	c.Logger.InfoContext(ctx, "repository cloned successfully")
	return repoPath, cleanup, nil
}

// HeadSHA returns the current HEAD commit SHA of the repository at the given
// path, or an empty string if the path is not a Git repository.
func (c *Client) HeadSHA(path string) string {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
