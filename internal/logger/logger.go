package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Log is the process logger. It discards everything until Init is called so
// library code and tests can log unconditionally.
var Log *zap.Logger = zap.NewNop()

// Init builds the process logger. PRISM_LOG=production selects the JSON
// production encoder, anything else the development console encoder.
// PRISM_LOG_OUTPUT replaces stderr with a file path. On error Log is left
// unchanged.
func Init() error {
	var cfg zap.Config
	if os.Getenv("PRISM_LOG") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	if out := os.Getenv("PRISM_LOG_OUTPUT"); out != "" {
		cfg.OutputPaths = []string{out}
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
