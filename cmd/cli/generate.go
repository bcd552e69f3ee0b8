package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/qa-forge/internal/app"
	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
	"github.com/sevigo/qa-forge/internal/gitutil"
	"github.com/sevigo/qa-forge/internal/wire"
)

var (
	repoURLs     []string
	outputPath   string
	outputFormat string
	dedupe       bool
	resume       bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

var generateCmd = &cobra.Command{
	Use:   "generate [repo-path...]",
	Short: "Generate a question/answer dataset from one or more source repositories",
	Long: `Generate a question/answer dataset from one or more source repositories.

Repositories are given as local path arguments or as remote URLs via
--repo-url (repeatable), in which case they are shallow-cloned into
temporary directories first. A single repository is processed in the
foreground with a summary; multiple repositories are queued onto the
worker pool and processed concurrently, one output file per repository.

Examples:
  qa-forge generate ./my-project
  qa-forge generate --repo-url https://github.com/owner/repo.git
  qa-forge generate ./svc-a ./svc-b --format jsonl --dedupe`,
	Args: cobra.ArbitraryArgs,
	RunE: runGenerate,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	generateCmd.Flags().StringArrayVar(&repoURLs, "repo-url", nil, "Clone and process a remote repository (repeatable)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path, single repository only (default: <output-dir>/<dataset-name>.<format>)")
	generateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json or jsonl (default from config)")
	generateCmd.Flags().BoolVar(&dedupe, "dedupe", false, "Drop near-duplicate questions using embeddings")
	generateCmd.Flags().BoolVar(&resume, "resume", false, "Resume the last interrupted run for this repository (requires run tracking)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// The deduper is only constructed when dedupe is enabled in the config,
	// so the flag has to take effect before the app is built.
	if cmd.Flags().Changed("dedupe") && dedupe {
		os.Setenv("QF_ENABLE_DEDUPE", "true")
	}

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: check your .env file and that Ollama is reachable", err)
	}
	defer cleanup()
	defer appInstance.Stop()

	cfg := appInstance.Config()
	events, err := buildEvents(args, repoURLs, cfg, outputPath, outputFormat, dedupe, resume)
	if err != nil {
		return err
	}

	titleColor.Println("QA Forge - Dataset Generation")
	dimColor.Printf("   Model: %s\n\n", cfg.AI.GeneratorModel)

	if len(events) == 1 {
		return runSingle(ctx, appInstance, events[0])
	}

	for _, event := range events {
		dimColor.Printf("   Queued: %s -> %s\n", eventSource(event), event.OutputPath)
		if err := appInstance.Dispatch(ctx, event); err != nil {
			return fmt.Errorf("failed to queue %s: %w", eventSource(event), err)
		}
	}

	start := time.Now()
	appInstance.Stop() // waits for all queued runs to finish

	successColor.Printf("\nProcessed %d repositories in %s\n", len(events), time.Since(start).Round(time.Second))
	warnColor.Println("   Per-repository failures, if any, are reported in the log.")
	return nil
}

// runSingle processes one repository in the foreground and prints its stats.
func runSingle(ctx context.Context, appInstance *app.App, event *core.GenerationEvent) error {
	dimColor.Printf("   Repo:   %s\n", eventSource(event))
	dimColor.Printf("   Output: %s\n\n", event.OutputPath)

	start := time.Now()
	stats, err := appInstance.Generate(ctx, event)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	successColor.Printf("Done in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("   Files processed:  %d\n", stats.FilesScanned)
	fmt.Printf("   Functions found:  %d\n", stats.FunctionsFound)
	fmt.Printf("   Records produced: %d\n", stats.RecordsProduced)
	if stats.FilesSkipped > 0 {
		dimColor.Printf("   Files skipped:    %d (unchanged since last run)\n", stats.FilesSkipped)
	}
	if stats.FilesFailed > 0 {
		warnColor.Printf("   Files failed:     %d (see log for details)\n", stats.FilesFailed)
	}
	if stats.DuplicatesDropped > 0 {
		dimColor.Printf("   Duplicates dropped: %d\n", stats.DuplicatesDropped)
	}
	return nil
}

// buildEvents turns the command's targets into generation events, deriving a
// per-repository output file when more than one target is given.
func buildEvents(paths, urls []string, cfg *config.Config, output, format string, dedupe, resume bool) ([]*core.GenerationEvent, error) {
	if len(paths) == 0 && len(urls) == 0 {
		return nil, fmt.Errorf("either a repository path argument or --repo-url is required")
	}

	if format == "" {
		format = cfg.Dataset.Format
	}
	switch format {
	case config.FormatJSON, config.FormatJSONL:
	default:
		return nil, fmt.Errorf("unsupported format %q, use %q or %q", format, config.FormatJSON, config.FormatJSONL)
	}

	multi := len(paths)+len(urls) > 1
	if multi && output != "" {
		return nil, fmt.Errorf("--output applies to a single repository; per-repository files are derived from the dataset name")
	}

	var events []*core.GenerationEvent
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid repository path %q: %w", p, err)
		}
		events = append(events, &core.GenerationEvent{
			RepoPath: abs,
			Dedupe:   dedupe || cfg.AI.EnableDedupe,
			Resume:   resume,
			Format:   format,
		})
	}
	for _, u := range urls {
		events = append(events, &core.GenerationEvent{
			RepoURL: u,
			Dedupe:  dedupe || cfg.AI.EnableDedupe,
			Resume:  resume,
			Format:  format,
		})
	}

	for _, event := range events {
		switch {
		case !multi && output != "":
			event.OutputPath = output
		case !multi:
			event.OutputPath = filepath.Join(cfg.Dataset.OutputDir, cfg.Dataset.FileName+"."+format)
		default:
			event.OutputPath = filepath.Join(cfg.Dataset.OutputDir, cfg.Dataset.FileName+"_"+targetName(event)+"."+format)
		}
	}
	return events, nil
}

// targetName derives a filename-safe repository name for an event.
func targetName(event *core.GenerationEvent) string {
	var name string
	if event.RepoURL != "" {
		if n, err := gitutil.RepoNameFromURL(event.RepoURL); err == nil {
			name = n
		} else {
			name = event.RepoURL
		}
	} else {
		name = gitutil.RepoNameFromPath(event.RepoPath)
	}
	name = strings.NewReplacer("/", "_", ":", "_", "@", "_").Replace(name)
	return name
}

func eventSource(event *core.GenerationEvent) string {
	if event.RepoURL != "" {
		return event.RepoURL
	}
	return event.RepoPath
}
