package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRepoConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
custom_instructions:
  - "Focus on error handling."
exclude_dirs:
  - vendor
  - testdata
exclude_exts:
  - ".pb.go"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".qa-forge.yml"), []byte(content), 0600))

	cfg, err := LoadRepoConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Focus on error handling."}, cfg.CustomInstructions)
	assert.Contains(t, cfg.ExcludeDirs, "vendor")
	assert.Contains(t, cfg.ExcludeDirs, "testdata")
	assert.Contains(t, cfg.ExcludeExts, ".pb.go")
}

func TestLoadRepoConfigMissingFile(t *testing.T) {
	cfg, err := LoadRepoConfig(t.TempDir())
	require.ErrorIs(t, err, ErrConfigNotFound)
	require.NotNil(t, cfg, "defaults are returned even when the file is missing")
}

func TestLoadRepoConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".qa-forge.yml"), []byte("{not yaml"), 0600))

	_, err := LoadRepoConfig(dir)
	require.ErrorIs(t, err, ErrConfigParsing)
}
