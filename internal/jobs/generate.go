package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
	"github.com/sevigo/qa-forge/internal/dataset"
	"github.com/sevigo/qa-forge/internal/extractor"
	"github.com/sevigo/qa-forge/internal/gitutil"
	"github.com/sevigo/qa-forge/internal/llm"
	"github.com/sevigo/qa-forge/internal/scanner"
	"github.com/sevigo/qa-forge/internal/storage"
)

// FunctionExtractor is the slice of the extractor the job needs.
type FunctionExtractor interface {
	ExtractFile(repoPath, relPath string) ([]core.CodeFunction, error)
}

// GenerationJob is a background job that walks a repository, extracts function
// definitions, and turns them into question/answer records via the model.
type GenerationJob struct {
	cfg       *config.Config
	scanner   *scanner.Scanner
	extractor FunctionExtractor
	generator llm.Generator
	deduper   *llm.Deduper // nil when dedupe is disabled
	writer    *dataset.Writer
	git       *gitutil.Client
	store     storage.Store // nil when run tracking is disabled
	logger    *slog.Logger
}

// NewGenerationJob creates a new GenerationJob.
func NewGenerationJob(
	cfg *config.Config,
	scn *scanner.Scanner,
	ext FunctionExtractor,
	gen llm.Generator,
	deduper *llm.Deduper,
	writer *dataset.Writer,
	git *gitutil.Client,
	store storage.Store,
	logger *slog.Logger,
) *GenerationJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if gen == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &GenerationJob{
		cfg:       cfg,
		scanner:   scn,
		extractor: ext,
		generator: gen,
		deduper:   deduper,
		writer:    writer,
		git:       git,
		store:     store,
		logger:    logger,
	}
}

// Run executes the generation job for a given event. It satisfies core.Job;
// the stats are logged rather than returned.
func (j *GenerationJob) Run(ctx context.Context, event *core.GenerationEvent) error {
	_, err := j.Execute(ctx, event)
	return err
}

// Execute runs the full pipeline and returns the run's stats.
func (j *GenerationJob) Execute(ctx context.Context, event *core.GenerationEvent) (*core.GenerationStats, error) {
	if err := j.validateInputs(ctx, event); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}

	start := time.Now()

	repoPath, cleanup, err := j.resolveRepo(ctx, event)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	j.logger.Info("starting generation run",
		"repo", event.RepoName,
		"path", repoPath,
		"model", j.cfg.AI.GeneratorModel,
	)

	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("failed to load repository config: %w", err)
		}
		j.logger.Debug("no .qa-forge.yml found, using defaults")
	}

	files, err := j.scanner.ListFiles(repoPath, repoCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	runID, processed, err := j.beginRun(ctx, event, repoPath)
	if err != nil {
		return nil, err
	}

	stats := &core.GenerationStats{}
	records, err := j.processFiles(ctx, event, repoPath, repoCfg, files, runID, processed, stats)
	if err != nil {
		j.finishRun(ctx, runID, core.RunStatusFailed, stats)
		return nil, err
	}

	if runID != 0 {
		// On a resumed run the previously produced records live in the store.
		records, err = j.store.GetRecordsForRun(ctx, runID)
		if err != nil {
			j.finishRun(ctx, runID, core.RunStatusFailed, stats)
			return nil, fmt.Errorf("failed to collect run records: %w", err)
		}
	}

	if event.Dedupe && j.deduper != nil {
		records, stats.DuplicatesDropped = j.deduper.Filter(ctx, records)
	}
	stats.RecordsProduced = len(records)

	if err := j.writer.Write(event.OutputPath, event.Format, records); err != nil {
		j.finishRun(ctx, runID, core.RunStatusFailed, stats)
		return nil, err
	}

	stats.Duration = time.Since(start)
	j.finishRun(ctx, runID, core.RunStatusCompleted, stats)

	j.logger.Info("generation run completed",
		"repo", event.RepoName,
		"files", stats.FilesScanned,
		"functions", stats.FunctionsFound,
		"records", stats.RecordsProduced,
		"duration", stats.Duration.Round(time.Second),
	)
	return stats, nil
}

// validateInputs ensures the event contains all required fields.
func (j *GenerationJob) validateInputs(ctx context.Context, event *core.GenerationEvent) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoPath == "" && event.RepoURL == "" {
		return fmt.Errorf("either a repository path or URL is required")
	}
	if event.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	return nil
}

// resolveRepo returns a local path for the event's repository, cloning remote
// repositories into a temporary directory. It also fills in the repository
// name and HEAD SHA on the event.
func (j *GenerationJob) resolveRepo(ctx context.Context, event *core.GenerationEvent) (string, func(), error) {
	if event.RepoURL != "" {
		cloneCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		repoPath, cleanup, err := j.git.CloneTemp(cloneCtx, event.RepoURL)
		if err != nil {
			return "", nil, fmt.Errorf("failed to clone repository: %w", err)
		}
		if event.RepoName == "" {
			name, nameErr := gitutil.RepoNameFromURL(event.RepoURL)
			if nameErr != nil {
				name = gitutil.RepoNameFromPath(repoPath)
			}
			event.RepoName = name
		}
		event.RepoPath = repoPath
		event.HeadSHA = j.git.HeadSHA(repoPath)
		return repoPath, cleanup, nil
	}

	if event.RepoName == "" {
		event.RepoName = gitutil.RepoNameFromPath(event.RepoPath)
	}
	event.HeadSHA = j.git.HeadSHA(event.RepoPath)
	return event.RepoPath, func() {}, nil
}

// beginRun creates or resumes a tracked run. Without a store it returns a zero
// run ID and no processed files.
func (j *GenerationJob) beginRun(ctx context.Context, event *core.GenerationEvent, repoPath string) (int64, map[string]string, error) {
	if j.store == nil {
		return 0, nil, nil
	}

	if event.Resume {
		last, err := j.store.GetLatestRunForRepo(ctx, event.RepoName)
		if err == nil && last.Status != core.RunStatusCompleted {
			processed, err := j.store.GetProcessedFiles(ctx, last.ID)
			if err != nil {
				return 0, nil, fmt.Errorf("failed to load resume state: %w", err)
			}
			j.logger.Info("resuming interrupted run", "run_id", last.ID, "files_done", len(processed))
			return last.ID, processed, nil
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, nil, fmt.Errorf("failed to look up previous run: %w", err)
		}
		j.logger.Info("no interrupted run to resume, starting fresh")
	}

	runID, err := j.store.CreateRun(ctx, &core.GenerationRun{
		RepoName: event.RepoName,
		RepoPath: repoPath,
		HeadSHA:  event.HeadSHA,
		Model:    j.cfg.AI.GeneratorModel,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil, nil
}

// finishRun persists the final state of a tracked run. A zero run ID means
// tracking is disabled.
func (j *GenerationJob) finishRun(ctx context.Context, runID int64, status string, stats *core.GenerationStats) {
	if j.store == nil || runID == 0 {
		return
	}
	if err := j.store.FinishRun(ctx, runID, status, stats); err != nil {
		j.logger.Error("failed to record run completion", "run_id", runID, "error", err)
	}
}

// processFiles runs extraction and generation over the file list, up to
// MaxWorkers files at a time. Per-file failures are logged and counted but do
// not abort the run; only context cancellation does.
func (j *GenerationJob) processFiles(
	ctx context.Context,
	event *core.GenerationEvent,
	repoPath string,
	repoCfg *core.RepoConfig,
	files []string,
	runID int64,
	processed map[string]string,
	stats *core.GenerationStats,
) ([]core.QARecord, error) {
	perFile := make([][]core.QARecord, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.AI.MaxWorkers)

	for i, relPath := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			hash, err := scanner.FileHash(filepath.Join(repoPath, relPath))
			if err != nil {
				j.logger.Warn("failed to hash file, skipping", "file", relPath, "error", err)
				mu.Lock()
				stats.FilesFailed++
				mu.Unlock()
				return nil
			}
			if prev, ok := processed[relPath]; ok && prev == hash {
				j.logger.Debug("skipping already processed file", "file", relPath)
				mu.Lock()
				stats.FilesSkipped++
				mu.Unlock()
				return nil
			}

			records, functions, err := j.processFile(ctx, event, repoPath, relPath, repoCfg)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				j.logger.Warn("failed to process file, continuing", "file", relPath, "error", err)
				mu.Lock()
				stats.FilesFailed++
				mu.Unlock()
				return nil
			}

			if runID != 0 {
				if err := j.store.SaveRecords(ctx, runID, records); err != nil {
					return fmt.Errorf("failed to persist records for %s: %w", relPath, err)
				}
				if err := j.store.MarkFileProcessed(ctx, runID, relPath, hash, functions, len(records)); err != nil {
					return fmt.Errorf("failed to mark %s as processed: %w", relPath, err)
				}
			}

			mu.Lock()
			perFile[i] = records
			stats.FilesScanned++
			stats.FunctionsFound += functions
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Flatten in scan order so the output is deterministic regardless of
	// worker scheduling.
	var records []core.QARecord
	for _, recs := range perFile {
		records = append(records, recs...)
	}
	return records, nil
}

// processFile extracts the functions of one file and generates records for
// each. A function whose generation fails is skipped, not fatal.
func (j *GenerationJob) processFile(
	ctx context.Context,
	event *core.GenerationEvent,
	repoPath, relPath string,
	repoCfg *core.RepoConfig,
) ([]core.QARecord, int, error) {
	funcs, err := j.extractor.ExtractFile(repoPath, relPath)
	if err != nil {
		if errors.Is(err, extractor.ErrNoParser) {
			j.logger.Debug("no parser for file", "file", relPath)
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var records []core.QARecord
	for _, fn := range funcs {
		recs, err := j.generator.GenerateForFunction(ctx, fn, event, repoCfg)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, 0, err
			}
			j.logger.Warn("generation failed for function, skipping",
				"function", fn.Name,
				"file", relPath,
				"error", err,
			)
			continue
		}
		records = append(records, recs...)
	}
	return records, len(funcs), nil
}
