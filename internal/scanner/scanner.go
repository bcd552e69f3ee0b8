// Package scanner enumerates the source files of a repository that are
// candidates for function extraction.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/qa-forge/internal/core"
)

// Scanner walks a repository root and yields relative file paths matching the
// configured extensions, honoring repo-local exclusions.
type Scanner struct {
	extensions []string
	logger     *slog.Logger
}

// New creates a Scanner for the given extension list (each with leading dot).
func New(extensions []string, logger *slog.Logger) *Scanner {
	return &Scanner{
		extensions: extensions,
		logger:     logger,
	}
}

// ListFiles recurses the repository and returns relative paths (slash
// separated) of all matching files. Hidden directories and directories named
// in the repo config are pruned.
func (s *Scanner) ListFiles(root string, repoCfg *core.RepoConfig) ([]string, error) {
	if repoCfg == nil {
		repoCfg = core.DefaultRepoConfig()
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("repository path %s does not exist: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path %s is not a directory", root)
	}

	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if isExcludedDir(info.Name(), repoCfg.ExcludeDirs) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matchesExtension(info.Name()) {
			return nil
		}
		if isExcludedExt(info.Name(), repoCfg.ExcludeExts) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository: %w", err)
	}

	s.logger.Info("repository scan complete", "root", root, "files", len(files))
	return files, nil
}

// FileHash calculates the SHA-256 hash of a file's content, used to skip
// unchanged files when resuming a run.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Scanner) matchesExtension(name string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isExcludedDir(name string, excludes []string) bool {
	// Hidden directories are never scanned.
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	for _, ex := range excludes {
		if name == ex {
			return true
		}
	}
	return false
}

func isExcludedExt(name string, excludes []string) bool {
	lower := strings.ToLower(name)
	for _, ex := range excludes {
		ex = strings.ToLower(strings.TrimPrefix(ex, "."))
		if strings.HasSuffix(lower, "."+ex) {
			return true
		}
	}
	return false
}
