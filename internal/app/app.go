// Package app initializes and orchestrates the main components of the QA
// Forge pipeline. It wires together the configuration, model clients, and the
// generation job.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sevigo/goframe/embeddings"
	"github.com/sevigo/goframe/llms/ollama"
	"github.com/sevigo/goframe/parsers"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
	"github.com/sevigo/qa-forge/internal/dataset"
	"github.com/sevigo/qa-forge/internal/db"
	"github.com/sevigo/qa-forge/internal/extractor"
	"github.com/sevigo/qa-forge/internal/gitutil"
	"github.com/sevigo/qa-forge/internal/jobs"
	"github.com/sevigo/qa-forge/internal/llm"
	"github.com/sevigo/qa-forge/internal/scanner"
	"github.com/sevigo/qa-forge/internal/storage"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	logger     *slog.Logger
	job        *jobs.GenerationJob
	dispatcher core.JobDispatcher
	store      storage.Store // nil when run tracking is disabled
}

// newOllamaHTTPClient creates an HTTP client with longer timeouts for Ollama
// requests. Local models can take a while to respond, so the defaults are too
// tight.
func newOllamaHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   false,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   10 * time.Minute,
	}
}

// NewApp sets up the application with all its dependencies. The returned
// cleanup function releases the database connection when tracking is enabled.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, func(), error) {
	logger.Info("initializing QA Forge",
		"ollama_host", cfg.AI.OllamaHost,
		"generator_model", cfg.AI.GeneratorModel,
		"max_workers", cfg.AI.MaxWorkers)

	httpClient := newOllamaHTTPClient()

	logger.Info("connecting to generator LLM", "model", cfg.AI.GeneratorModel)
	generatorLLM, err := ollama.New(
		ollama.WithServerURL(cfg.AI.OllamaHost),
		ollama.WithModel(cfg.AI.GeneratorModel),
		ollama.WithHTTPClient(httpClient),
		ollama.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to connect to generator LLM", "error", err)
		return nil, nil, fmt.Errorf("failed to create generator LLM: %w", err)
	}

	var deduper *llm.Deduper
	if cfg.AI.EnableDedupe {
		logger.Info("connecting to embedder LLM", "model", cfg.AI.EmbedderModel, "host", cfg.AI.OllamaHost)
		embedderLLM, err := ollama.New(
			ollama.WithServerURL(cfg.AI.OllamaHost),
			ollama.WithModel(cfg.AI.EmbedderModel),
			ollama.WithHTTPClient(httpClient),
			ollama.WithLogger(logger),
		)
		if err != nil {
			logger.Error("failed to connect to embedder LLM", "error", err)
			return nil, nil, fmt.Errorf("failed to create embedder LLM: %w", err)
		}

		embedder, err := embeddings.NewEmbedder(embedderLLM)
		if err != nil {
			logger.Error("failed to create embedder service", "error", err)
			return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		deduper = llm.NewDeduper(embedder, cfg.AI.SimilarityThreshold, logger)
	}

	cleanup := func() {}
	var store storage.Store
	if cfg.Database != nil && cfg.Database.Enabled {
		dbConn, dbCleanup, err := db.NewDatabase(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = dbCleanup
		store = storage.NewStore(dbConn.DB)
	}

	parserRegistry, err := parsers.RegisterLanguagePlugins(logger)
	if err != nil {
		cleanup()
		logger.Error("failed to register language parsers", "error", err)
		return nil, nil, fmt.Errorf("failed to register language parsers: %w", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		cleanup()
		logger.Error("failed to initialize prompt manager", "error", err)
		return nil, nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	generator := llm.NewGenerator(cfg, promptMgr, generatorLLM, logger)
	scn := scanner.New(cfg.Repo.Extensions, logger)
	ext := extractor.New(parserRegistry, logger)
	writer := dataset.NewWriter(logger)
	gitClient := gitutil.NewClient(logger)

	job := jobs.NewGenerationJob(cfg, scn, ext, generator, deduper, writer, gitClient, store, logger)
	dispatcher := jobs.NewDispatcher(job, cfg.AI.MaxWorkers, logger)

	logger.Info("QA Forge initialized successfully")
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		logger:     logger,
		job:        job,
		dispatcher: dispatcher,
		store:      store,
	}, cleanup, nil
}

// Generate runs one generation pipeline synchronously and returns its stats.
func (a *App) Generate(ctx context.Context, event *core.GenerationEvent) (*core.GenerationStats, error) {
	return a.job.Execute(ctx, event)
}

// Dispatch queues a generation run for asynchronous processing.
func (a *App) Dispatch(ctx context.Context, event *core.GenerationEvent) error {
	return a.dispatcher.Dispatch(ctx, event)
}

// Store exposes the run-tracking store, or nil when tracking is disabled.
func (a *App) Store() storage.Store {
	return a.store
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Stop shuts down the application cleanly, letting in-flight jobs finish.
func (a *App) Stop() {
	a.logger.Info("shutting down QA Forge services")
	a.dispatcher.Stop()
	a.logger.Info("QA Forge stopped successfully")
}
