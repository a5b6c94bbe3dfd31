package logger

import (
	"log/slog"
	"os"
)

// EnvTestDebug turns on debug output in tests when set to any value.
const EnvTestDebug = "TEST_DEBUG"

// NewTestLogger returns a text logger for tests. It only reports
// warnings and errors unless TEST_DEBUG is set.
func NewTestLogger() *slog.Logger {
	cfg := Config{Level: slog.LevelWarn, Format: "text", Output: os.Stderr}
	if os.Getenv(EnvTestDebug) != "" {
		cfg.Level = slog.LevelDebug
	}
	return NewLogger(cfg)
}
