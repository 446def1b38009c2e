package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Level comes from LOG_LEVEL (default info).
func New(out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// ParseLevel maps a level name to a logrus level, falling back to info.
func ParseLevel(raw string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
