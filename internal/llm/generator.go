package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
)

// Generator turns extracted functions into question/answer records by
// prompting the configured model.
type Generator interface {
	GenerateForFunction(ctx context.Context, fn core.CodeFunction, event *core.GenerationEvent, repoCfg *core.RepoConfig) ([]core.QARecord, error)
}

// callFunc invokes the model with a rendered prompt.
type callFunc func(ctx context.Context, prompt string) (string, error)

type generator struct {
	cfg       *config.Config
	promptMgr *PromptManager
	call      callFunc
	logger    *slog.Logger
}

// NewGenerator creates a Generator using the given model and prompt manager.
func NewGenerator(cfg *config.Config, promptMgr *PromptManager, model llms.Model, logger *slog.Logger) Generator {
	return &generator{
		cfg:       cfg,
		promptMgr: promptMgr,
		call: func(ctx context.Context, prompt string) (string, error) {
			return model.Call(ctx, prompt)
		},
		logger: logger,
	}
}

// qaPromptData is the template payload for the qa_generation prompt.
type qaPromptData struct {
	Questions          int
	Language           string
	PackageName        string
	File               string
	Code               string
	CustomInstructions string
}

// GenerateForFunction prompts the model once for a function and parses the
// response into records. Every record carries the function's snippet and
// location so the dataset stays traceable to its source.
func (g *generator) GenerateForFunction(ctx context.Context, fn core.CodeFunction, event *core.GenerationEvent, repoCfg *core.RepoConfig) ([]core.QARecord, error) {
	if repoCfg == nil {
		repoCfg = core.DefaultRepoConfig()
	}

	provider := ProviderForModel(g.cfg.AI.GeneratorModel)
	prompt, err := g.promptMgr.Render(QAGenerationPrompt, provider, qaPromptData{
		Questions:          g.cfg.AI.QuestionsPerFunction,
		Language:           fn.Language,
		PackageName:        fn.PackageName,
		File:               fn.FilePath,
		Code:               fn.Source,
		CustomInstructions: strings.Join(repoCfg.CustomInstructions, "\n"),
	})
	if err != nil {
		return nil, fmt.Errorf("could not render qa_generation prompt: %w", err)
	}

	response, err := g.generateWithTimeout(ctx, prompt, g.cfg.AI.GenerationTimeout)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed for function %s: %w", fn.Name, err)
	}

	pairs, err := parseQAPairs(response)
	if err != nil {
		return nil, fmt.Errorf("unusable response for function %s: %w", fn.Name, err)
	}

	reasoning := fmt.Sprintf("Generated from function %s in %s using %s.", fn.Name, fn.FilePath, g.cfg.AI.GeneratorModel)
	records := make([]core.QARecord, 0, len(pairs))
	for _, pair := range pairs {
		records = append(records, core.QARecord{
			Question:    pair.Question,
			Answer:      pair.Answer,
			CodeSnippet: fn.Source,
			Reasoning:   reasoning,
			File:        fn.FilePath,
			Repo:        event.RepoName,
		})
	}

	g.logger.Debug("generated records for function",
		"function", fn.Name,
		"file", fn.FilePath,
		"pairs", len(records),
	)
	return records, nil
}

// generateWithTimeout wraps model generation with a hard timeout so a hung
// client cannot stall the whole run.
func (g *generator) generateWithTimeout(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := g.call(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
			// Do not block the goroutine if the parent timed out.
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
