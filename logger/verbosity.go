package logger

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Verbosity levels for the CLI -v flag count. They select both the zap
// level and the output categories in output.go.
//
//	if logger.ShouldOutput(verbosity, logger.OutputTiming) {
//	    fmt.Fprintf(os.Stderr, "merge took %s\n", stats.Duration)
//	}
const (
	VerbosityUser  = 0 // No flags: results and errors only
	VerbosityInfo  = 1 // -v: + progress, summaries
	VerbosityDebug = 2 // -vv: + path resolution, timing, config details
	VerbosityTrace = 3 // -vvv: + per-segment traversal, SQL
	VerbosityAll   = 4 // -vvvv: + full record dumps
)

var verbosityLevels = []struct {
	level       zapcore.Level
	name        string
	description string
}{
	VerbosityUser:  {zapcore.WarnLevel, "User", "results and errors only"},
	VerbosityInfo:  {zapcore.InfoLevel, "Info (-v)", "results, errors, progress and summaries"},
	VerbosityDebug: {zapcore.DebugLevel, "Debug (-vv)", "above + path resolution, timing, config details"},
	VerbosityTrace: {zapcore.DebugLevel, "Trace (-vvv)", "above + traversal steps and SQL"},
	VerbosityAll:   {zapcore.DebugLevel, "All (-vvvv)", "full output including record dumps"},
}

// VerbosityToLevel maps a -v count to a zap level. Zap has nothing below
// debug, so trace and above differ only in output categories.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity < 0:
		return zapcore.WarnLevel
	case verbosity > VerbosityAll:
		return zapcore.DebugLevel
	}
	return verbosityLevels[verbosity].level
}

// LevelName returns a human-readable name for a verbosity level
func LevelName(verbosity int) string {
	switch {
	case verbosity < 0:
		return fmt.Sprintf("Unknown (%d)", verbosity)
	case verbosity > VerbosityAll:
		return "All (-vvvv+)"
	}
	return verbosityLevels[verbosity].name
}

// VerbosityDescription describes what is shown at verbosity
func VerbosityDescription(verbosity int) string {
	switch {
	case verbosity < 0:
		return "unknown verbosity level"
	case verbosity > VerbosityAll:
		return "maximum verbosity"
	}
	return verbosityLevels[verbosity].description
}
