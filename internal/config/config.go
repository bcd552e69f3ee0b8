package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/qa-forge/internal/logger"
)

// Config holds the application's configuration values.
type Config struct {
	Repo     RepoSettings
	Dataset  DatasetConfig
	AI       AIConfig
	Database *DBConfig
	Logger   logger.Config
}

// RepoSettings describes which repository to process and which files to pick up.
type RepoSettings struct {
	Path       string
	URL        string
	Extensions []string
}

// DatasetConfig controls where and how the generated records are written.
type DatasetConfig struct {
	OutputDir string
	FileName  string
	Format    string
}

// AIConfig holds everything related to the local model.
type AIConfig struct {
	OllamaHost           string
	GeneratorModel       string
	EmbedderModel        string
	QuestionsPerFunction int
	EnableDedupe         bool
	SimilarityThreshold  float64
	GenerationTimeout    time.Duration
	MaxWorkers           int
}

// DBConfig holds the optional Postgres connection settings for run tracking.
type DBConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Output formats supported by the writer.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates the result. It uses the Viper library
// to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.SetEnvPrefix("QF")
	v.AutomaticEnv()

	v.SetDefault("REPO_PATH", "")
	v.SetDefault("REPO_URL", "")
	v.SetDefault("FILE_EXTENSIONS", ".go")
	v.SetDefault("OUTPUT_DIR", "output_data")
	v.SetDefault("DATASET_NAME", "qa_pairs")
	v.SetDefault("OUTPUT_FORMAT", FormatJSON)
	v.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	v.SetDefault("GENERATOR_MODEL_NAME", "qwen2.5-coder:7b")
	v.SetDefault("EMBEDDER_MODEL_NAME", "nomic-embed-text")
	v.SetDefault("QUESTIONS_PER_FUNCTION", 3)
	v.SetDefault("ENABLE_DEDUPE", false)
	v.SetDefault("SIMILARITY_THRESHOLD", 0.92)
	v.SetDefault("GENERATION_TIMEOUT", "5m")
	v.SetDefault("MAX_WORKERS", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stderr")
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "qaforge")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "qaforge")
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A malformed .env is worth failing on; a missing one is not.
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	}

	cfg := &Config{
		Repo: RepoSettings{
			Path:       v.GetString("REPO_PATH"),
			URL:        v.GetString("REPO_URL"),
			Extensions: splitExtensions(v.GetString("FILE_EXTENSIONS")),
		},
		Dataset: DatasetConfig{
			OutputDir: v.GetString("OUTPUT_DIR"),
			FileName:  v.GetString("DATASET_NAME"),
			Format:    strings.ToLower(v.GetString("OUTPUT_FORMAT")),
		},
		AI: AIConfig{
			OllamaHost:           v.GetString("OLLAMA_HOST"),
			GeneratorModel:       v.GetString("GENERATOR_MODEL_NAME"),
			EmbedderModel:        v.GetString("EMBEDDER_MODEL_NAME"),
			QuestionsPerFunction: v.GetInt("QUESTIONS_PER_FUNCTION"),
			EnableDedupe:         v.GetBool("ENABLE_DEDUPE"),
			SimilarityThreshold:  v.GetFloat64("SIMILARITY_THRESHOLD"),
			GenerationTimeout:    v.GetDuration("GENERATION_TIMEOUT"),
			MaxWorkers:           v.GetInt("MAX_WORKERS"),
		},
		Database: &DBConfig{
			Enabled:         v.GetBool("DB_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Logger: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.AI.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dataset.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the AI settings for values the pipeline cannot work with.
func (c *AIConfig) Validate() error {
	if c.GeneratorModel == "" {
		return fmt.Errorf("GENERATOR_MODEL_NAME must be set")
	}
	if c.QuestionsPerFunction < 1 || c.QuestionsPerFunction > 10 {
		return fmt.Errorf("QUESTIONS_PER_FUNCTION must be between 1 and 10, got %d", c.QuestionsPerFunction)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	if c.EnableDedupe && c.EmbedderModel == "" {
		return fmt.Errorf("EMBEDDER_MODEL_NAME must be set when ENABLE_DEDUPE is on")
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.MaxWorkers)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %v", c.GenerationTimeout)
	}
	return nil
}

// Validate checks the dataset output settings.
func (d *DatasetConfig) Validate() error {
	switch d.Format {
	case FormatJSON, FormatJSONL:
	default:
		return fmt.Errorf("OUTPUT_FORMAT must be %q or %q, got %q", FormatJSON, FormatJSONL, d.Format)
	}
	if d.FileName == "" {
		return fmt.Errorf("DATASET_NAME must not be empty")
	}
	return nil
}

// splitExtensions parses a comma-separated extension list and normalizes each
// entry to a leading dot.
func splitExtensions(raw string) []string {
	var exts []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		exts = append(exts, part)
	}
	return exts
}
