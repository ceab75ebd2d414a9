// Package logging builds the application logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"ironlog/fitness-app/internal/config"
)

// New creates a zerolog.Logger from the log configuration. Output is JSON
// to stderr, optionally duplicated into a size-rotated file.
func New(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(os.Stderr, fileWriter)
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
