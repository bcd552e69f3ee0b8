// Package extractor turns source files into function definitions using the
// goframe language parser registry.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/goframe/parsers"

	"github.com/sevigo/qa-forge/internal/core"
)

// ErrNoParser is returned when no language plugin claims a file.
var ErrNoParser = errors.New("no suitable parser for file")

// Extractor parses source files and yields their function definitions.
type Extractor struct {
	registry parsers.ParserRegistry
	logger   *slog.Logger
}

// New creates an Extractor backed by the given parser registry.
func New(registry parsers.ParserRegistry, logger *slog.Logger) *Extractor {
	return &Extractor{
		registry: registry,
		logger:   logger,
	}
}

// ExtractFile reads and parses a single file and returns the function
// definitions found in it. The relative path is preserved on each result so
// records stay portable across machines.
func (e *Extractor) ExtractFile(repoPath, relPath string) ([]core.CodeFunction, error) {
	fullPath := filepath.Join(repoPath, relPath)
	contentBytes, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
	}

	parser, err := e.registry.GetParserForFile(fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoParser, relPath)
	}

	// Sanitize content to ensure valid UTF-8 before handing it to the parser.
	content := strings.ToValidUTF8(string(contentBytes), "")

	chunks, err := parser.Chunk(content, relPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", relPath, err)
	}

	var packageName string
	if meta, metaErr := parser.ExtractMetadata(content, fullPath); metaErr == nil {
		packageName = meta.PackageName
	}

	language := LanguageForFile(relPath)

	var funcs []core.CodeFunction
	for _, chunk := range chunks {
		if !isFunctionChunk(chunk.Type) {
			continue
		}
		name := chunk.Identifier
		if name == "" {
			name = fmt.Sprintf("anonymous_%d", chunk.LineStart)
		}
		funcs = append(funcs, core.CodeFunction{
			Name:        name,
			Source:      chunk.Content,
			FilePath:    relPath,
			StartLine:   chunk.LineStart,
			EndLine:     chunk.LineEnd,
			Language:    language,
			PackageName: packageName,
		})
	}

	e.logger.Debug("extracted functions", "file", relPath, "count", len(funcs))
	return funcs, nil
}

// isFunctionChunk reports whether a chunk type produced by a language plugin
// represents a function or method definition.
func isFunctionChunk(chunkType string) bool {
	switch strings.ToLower(chunkType) {
	case "func", "function", "method":
		return true
	}
	return false
}

// LanguageForFile maps a file name to a human-readable language label used in
// prompts and records.
func LanguageForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "Go"
	case ".py":
		return "Python"
	case ".js", ".jsx":
		return "JavaScript"
	case ".ts", ".tsx":
		return "TypeScript"
	case ".java":
		return "Java"
	case ".rs":
		return "Rust"
	case ".c", ".h":
		return "C"
	case ".cpp", ".cc", ".hpp":
		return "C++"
	case ".rb":
		return "Ruby"
	default:
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			return "source"
		}
		return ext
	}
}
