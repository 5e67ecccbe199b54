// Package logger holds the process-wide zap logger used by every jcore
// component. Until a command initializes it, Logger discards everything, so
// library code can log unconditionally.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global sugared logger. Components derive named loggers
	// from it with ComponentLogger.
	Logger *zap.SugaredLogger
	// JSONOutput reports whether Logger writes JSON lines
	JSONOutput bool
)

func init() {
	Logger = zap.NewNop().Sugar()
}

// New builds a logger writing to w at level. Console output uses short
// timestamps and colored levels; JSON output uses the production encoder.
func New(w zapcore.WriteSyncer, jsonOutput bool, level zapcore.Level) *zap.SugaredLogger {
	var encoder zapcore.Encoder
	if jsonOutput {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(encoder, w, level)).Sugar()
}

// Initialize sets up the global logger at info level.
func Initialize(jsonOutput bool) error {
	return InitializeWithVerbosity(jsonOutput, VerbosityInfo)
}

// InitializeWithVerbosity sets up the global logger with the level derived
// from the CLI verbosity count (-v, -vv, -vvv). Logs go to stderr so command
// results on stdout stay pipeable.
func InitializeWithVerbosity(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	Logger = New(zapcore.Lock(os.Stderr), jsonOutput, VerbosityToLevel(verbosity))
	return nil
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		// stderr sync fails on some terminals; nothing to do about it
		_ = Logger.Sync()
	}
}
