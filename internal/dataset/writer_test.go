package dataset

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
)

func testWriter() *Writer {
	return NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleRecords() []core.QARecord {
	return []core.QARecord{
		{
			Question:    "What does FileHash return?",
			Answer:      "The SHA-256 hex digest of the file content.",
			CodeSnippet: "func FileHash(path string) (string, error) { ... }",
			Reasoning:   "Generated from function FileHash in internal/scanner/scanner.go using qwen2.5-coder:7b.",
			File:        "internal/scanner/scanner.go",
			Repo:        "sevigo/qa-forge",
		},
		{
			Question:    "When does ListFiles skip a directory?",
			Answer:      "When it is hidden or named in exclude_dirs.",
			CodeSnippet: "func (s *Scanner) ListFiles(...) { ... }",
			Reasoning:   "Generated from function ListFiles in internal/scanner/scanner.go using qwen2.5-coder:7b.",
			File:        "internal/scanner/scanner.go",
			Repo:        "sevigo/qa-forge",
		},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "qa_pairs.json")
	records := sampleRecords()

	require.NoError(t, testWriter().Write(path, config.FormatJSON, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, json.Valid(raw), "output must be valid JSON")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa_pairs.jsonl")
	records := sampleRecords()

	require.NoError(t, testWriter().Write(path, config.FormatJSONL, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, len(records), "one line per record")
	for _, line := range lines {
		require.True(t, json.Valid([]byte(line)))
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestWriteEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	require.NoError(t, testWriter().Write(path, config.FormatJSON, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestWriteUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	err := testWriter().Write(path, "csv", sampleRecords())
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written for unsupported formats")
}

func TestWriteOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa_pairs.json")
	w := testWriter()

	require.NoError(t, w.Write(path, config.FormatJSON, sampleRecords()))
	require.NoError(t, w.Write(path, config.FormatJSON, sampleRecords()[:1]))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
