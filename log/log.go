package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Imported for side effects from cmd/main.go: installs the global zap logger
// so the rest of the service can use zap.L().
func init() {
	level := zapcore.InfoLevel
	if v := os.Getenv("WOLF_LOG_LEVEL"); v != "" {
		if parsed, err := zapcore.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
}
