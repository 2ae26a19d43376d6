// Package logging builds the logrus logger behind the application Logger
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/andrescamacho/gangsim/internal/infrastructure/config"
)

// LogrusLogger adapts a logrus entry to the application Logger
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger builds a logger from cfg. The returned closer releases the log file, if any.
func NewLogger(cfg config.LoggingConfig) (*LogrusLogger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}

	var out io.Writer
	var closer io.Closer = io.NopCloser(nil)
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "", "stderr":
		out = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetReportCaller(cfg.IncludeCaller)
	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &LogrusLogger{entry: logrus.NewEntry(l)}, closer, nil
}

// NewLoggerFrom wraps an existing logrus logger
func NewLoggerFrom(l logrus.FieldLogger) *LogrusLogger {
	return &LogrusLogger{entry: l.WithFields(logrus.Fields{})}
}

// Log implements logging.Logger. Levels are DEBUG, INFO, WARN/WARNING and ERROR.
func (l *LogrusLogger) Log(level, message string, metadata map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(metadata)).Log(parseLevel(level), message)
}

// With returns a logger that adds fields to every entry
func (l *LogrusLogger) With(fields map[string]interface{}) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Logrus exposes the underlying entry
func (l *LogrusLogger) Logrus() *logrus.Entry {
	return l.entry
}

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
