package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
	"github.com/sevigo/qa-forge/internal/extractor"
	"github.com/sevigo/qa-forge/internal/gitutil"
)

// fakeExtractor yields one function per file, or a canned error.
type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) ExtractFile(_, relPath string) ([]core.CodeFunction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []core.CodeFunction{{
		Name:     "fn_" + filepath.Base(relPath),
		Source:   "func fn() {}",
		FilePath: relPath,
	}}, nil
}

// fakeGenerator returns one record per function and fails for names in failFor.
type fakeGenerator struct {
	failFor map[string]bool
}

func (f *fakeGenerator) GenerateForFunction(_ context.Context, fn core.CodeFunction, event *core.GenerationEvent, _ *core.RepoConfig) ([]core.QARecord, error) {
	if f.failFor[fn.Name] {
		return nil, fmt.Errorf("model refused")
	}
	return []core.QARecord{{
		Question:    "What does " + fn.Name + " do?",
		Answer:      "Something.",
		CodeSnippet: fn.Source,
		File:        fn.FilePath,
		Repo:        event.RepoName,
	}}, nil
}

func testJob(ext FunctionExtractor, gen *fakeGenerator, workers int) *GenerationJob {
	return &GenerationJob{
		cfg: &config.Config{AI: config.AIConfig{
			MaxWorkers:        workers,
			GenerationTimeout: time.Minute,
		}},
		extractor: ext,
		generator: gen,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGenerationJobValidateInputs(t *testing.T) {
	j := &GenerationJob{}

	tests := []struct {
		name    string
		event   *core.GenerationEvent
		wantErr string
	}{
		{
			name:  "local path",
			event: &core.GenerationEvent{RepoPath: "/tmp/repo", OutputPath: "out/qa.json"},
		},
		{
			name:  "remote url",
			event: &core.GenerationEvent{RepoURL: "https://github.com/owner/repo.git", OutputPath: "out/qa.json"},
		},
		{
			name:    "nil event",
			event:   nil,
			wantErr: "event cannot be nil",
		},
		{
			name:    "no repository",
			event:   &core.GenerationEvent{OutputPath: "out/qa.json"},
			wantErr: "repository path or URL",
		},
		{
			name:    "no output path",
			event:   &core.GenerationEvent{RepoPath: "/tmp/repo"},
			wantErr: "output path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := j.validateInputs(context.Background(), tt.event)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProcessFilesDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	files := []string{"a.go", "m.go", "z.go", "pkg/util.go"}
	for _, f := range files {
		full := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("package x\n"), 0o600))
	}

	j := testJob(&fakeExtractor{}, &fakeGenerator{}, 4)
	event := &core.GenerationEvent{RepoName: "r", OutputPath: "out/qa.json"}
	stats := &core.GenerationStats{}

	records, err := j.processFiles(context.Background(), event, root, nil, files, 0, nil, stats)
	require.NoError(t, err)

	require.Len(t, records, len(files))
	for i, f := range files {
		assert.Equal(t, f, records[i].File, "records must follow scan order, not completion order")
	}
	assert.Equal(t, len(files), stats.FilesScanned)
	assert.Equal(t, len(files), stats.FunctionsFound)
}

func TestProcessFilesContinuesAfterFailures(t *testing.T) {
	root := t.TempDir()
	files := []string{"good.go", "bad.go"}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("package x\n"), 0o600))
	}

	gen := &fakeGenerator{failFor: map[string]bool{"fn_bad.go": true}}
	j := testJob(&fakeExtractor{}, gen, 1)
	stats := &core.GenerationStats{}

	records, err := j.processFiles(context.Background(), &core.GenerationEvent{RepoName: "r"}, root, nil, files, 0, nil, stats)
	require.NoError(t, err, "a failing function must not abort the run")

	require.Len(t, records, 1)
	assert.Equal(t, "good.go", records[0].File)
	assert.Equal(t, 2, stats.FilesScanned)
}

func TestProcessFileNoParser(t *testing.T) {
	j := testJob(&fakeExtractor{err: fmt.Errorf("%w: weird.xyz", extractor.ErrNoParser)}, &fakeGenerator{}, 1)

	records, functions, err := j.processFile(context.Background(), &core.GenerationEvent{RepoName: "r"}, "/tmp", "weird.xyz", nil)
	require.NoError(t, err, "unparseable files are skipped, not fatal")
	assert.Empty(t, records)
	assert.Zero(t, functions)
}

func TestResolveRepoLocalPath(t *testing.T) {
	dir := t.TempDir()
	j := &GenerationJob{git: gitutil.NewClient(nil)}

	event := &core.GenerationEvent{RepoPath: dir, OutputPath: "out/qa.json"}
	path, cleanup, err := j.resolveRepo(context.Background(), event)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, dir, path)
	assert.NotEmpty(t, event.RepoName)
	assert.Empty(t, event.HeadSHA, "a plain directory has no HEAD")
}
