// Package wire assembles the application object graph.
package wire

import (
	"io"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/qa-forge/internal/app"
	"github.com/sevigo/qa-forge/internal/config"
	"github.com/sevigo/qa-forge/internal/logger"
)

var AppSet = wire.NewSet(
	app.NewApp,
	config.LoadConfig,
	provideLoggerConfig,
	provideLogWriter,
	provideSlogLogger,
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logger
}

// provideLogWriter returns nil so NewLogger resolves the destination from the
// configured output itself.
func provideLogWriter() io.Writer {
	return nil
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}
