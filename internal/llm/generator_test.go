package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/core"
)

func testGeneratorConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			GeneratorModel:       "qwen2.5-coder:7b",
			QuestionsPerFunction: 3,
			GenerationTimeout:    5 * time.Second,
		},
	}
}

func newTestGenerator(t *testing.T, call callFunc) *generator {
	t.Helper()
	pm, err := NewPromptManager()
	require.NoError(t, err)
	return &generator{
		cfg:       testGeneratorConfig(),
		promptMgr: pm,
		call:      call,
		logger:    discardLogger(),
	}
}

func sampleFunction() core.CodeFunction {
	return core.CodeFunction{
		Name:        "FileHash",
		Source:      "func FileHash(path string) (string, error) { return \"\", nil }",
		FilePath:    "internal/scanner/scanner.go",
		Language:    "Go",
		PackageName: "scanner",
	}
}

func TestGenerateForFunctionMapsPairsToRecords(t *testing.T) {
	calls := 0
	var seenPrompt string
	gen := newTestGenerator(t, func(_ context.Context, prompt string) (string, error) {
		calls++
		seenPrompt = prompt
		return `Question: What does it return?
Answer: The SHA-256 hex digest.
Question: When does it fail?
Answer: When the file cannot be opened.`, nil
	})

	fn := sampleFunction()
	event := &core.GenerationEvent{RepoName: "sevigo/qa-forge"}

	records, err := gen.GenerateForFunction(context.Background(), fn, event, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "one prompt per function")
	assert.Contains(t, seenPrompt, fn.Source)
	assert.Contains(t, seenPrompt, fn.FilePath)

	require.Len(t, records, 2, "one record per parsed pair")
	wantReasoning := "Generated from function FileHash in internal/scanner/scanner.go using qwen2.5-coder:7b."
	for _, rec := range records {
		assert.Equal(t, fn.Source, rec.CodeSnippet)
		assert.Equal(t, fn.FilePath, rec.File)
		assert.Equal(t, "sevigo/qa-forge", rec.Repo)
		assert.Equal(t, wantReasoning, rec.Reasoning)
	}
	assert.Equal(t, "What does it return?", records[0].Question)
	assert.Equal(t, "The SHA-256 hex digest.", records[0].Answer)
	assert.Equal(t, "When does it fail?", records[1].Question)
}

func TestGenerateForFunctionCustomInstructions(t *testing.T) {
	var seenPrompt string
	gen := newTestGenerator(t, func(_ context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return "Question: q\nAnswer: a", nil
	})

	repoCfg := &core.RepoConfig{CustomInstructions: []string{"Focus on error handling."}}
	_, err := gen.GenerateForFunction(context.Background(), sampleFunction(), &core.GenerationEvent{RepoName: "r"}, repoCfg)
	require.NoError(t, err)
	assert.Contains(t, seenPrompt, "Focus on error handling.")
}

func TestGenerateForFunctionUnusableResponse(t *testing.T) {
	gen := newTestGenerator(t, func(context.Context, string) (string, error) {
		return "I cannot help with that.", nil
	})

	_, err := gen.GenerateForFunction(context.Background(), sampleFunction(), &core.GenerationEvent{RepoName: "r"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FileHash")
}

func TestGenerateForFunctionModelError(t *testing.T) {
	gen := newTestGenerator(t, func(context.Context, string) (string, error) {
		return "", fmt.Errorf("connection refused")
	})

	_, err := gen.GenerateForFunction(context.Background(), sampleFunction(), &core.GenerationEvent{RepoName: "r"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
