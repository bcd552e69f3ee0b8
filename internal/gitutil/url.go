package gitutil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// RepoNameFromURL extracts "owner/repo" from a remote URL (HTTPS or SSH).
func RepoNameFromURL(raw string) (string, error) {
	// HTTPS – https://github.com/owner/repo.git
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		name := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
		if name == "" {
			return "", fmt.Errorf("remote URL %q has no repository path", raw)
		}
		return name, nil
	}
	// SSH – git@github.com:owner/repo.git
	if strings.Contains(raw, "@") && strings.Contains(raw, ":") {
		parts := strings.SplitN(raw, ":", 2)
		if len(parts) == 2 && parts[1] != "" {
			return strings.TrimSuffix(parts[1], ".git"), nil
		}
	}
	return "", fmt.Errorf("could not determine repository name from %q", raw)
}

// RepoNameFromPath derives a repository name from a local directory path,
// mirroring how the original tooling used the directory's base name.
func RepoNameFromPath(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == "." || base == string(filepath.Separator) {
		return "repository"
	}
	return base
}
