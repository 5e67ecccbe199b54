package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// swapLogger replaces the global logger for the duration of a test.
func swapLogger(t *testing.T, l *zap.SugaredLogger) {
	t.Helper()
	prev, prevJSON := Logger, JSONOutput
	Logger = l
	t.Cleanup(func() {
		Logger, JSONOutput = prev, prevJSON
	})
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{"JSON output mode", true},
		{"Console output mode", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swapLogger(t, nil)

			require.NoError(t, Initialize(tt.jsonOutput))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.True(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
			assert.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestInitializeWithVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		enabled   zapcore.Level
		disabled  zapcore.Level
	}{
		{VerbosityUser, zapcore.WarnLevel, zapcore.InfoLevel},
		{VerbosityInfo, zapcore.InfoLevel, zapcore.DebugLevel},
		{VerbosityDebug, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{VerbosityAll + 3, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tt := range tests {
		t.Run(LevelName(tt.verbosity), func(t *testing.T) {
			swapLogger(t, nil)

			require.NoError(t, InitializeWithVerbosity(false, tt.verbosity))
			core := Logger.Desugar().Core()
			assert.True(t, core.Enabled(tt.enabled))
			assert.False(t, core.Enabled(tt.disabled))
		})
	}
}

func TestDefaultLoggerIsNop(t *testing.T) {
	// Package init installs a no-op logger so library code never needs a nil check.
	require.NotNil(t, Logger)
	assert.NotPanics(t, func() {
		ComponentLogger("featurepath").Infow("resolved", FieldFeaturePath, "/a/b")
	})
}

func TestCleanup(t *testing.T) {
	t.Run("initialized logger", func(t *testing.T) {
		swapLogger(t, zaptest.NewLogger(t).Sugar())
		assert.NotPanics(t, Cleanup)
		assert.NotNil(t, Logger, "Cleanup should not nil out the logger")
	})

	t.Run("nil logger", func(t *testing.T) {
		swapLogger(t, nil)
		assert.NotPanics(t, Cleanup)
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		want       string
	}{
		{"console", false, "merged embedding streams\t{\"count\": 3}"},
		{"json", true, `"msg":"merged embedding streams","count":3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(zapcore.AddSync(&buf), tt.jsonOutput, zapcore.InfoLevel)
			l.Debugw("hidden", FieldCount, 1)
			l.Infow("merged embedding streams", FieldCount, 3)
			require.NoError(t, l.Sync())

			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), "hidden")
		})
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(VerbosityUser))
	assert.Equal(t, "Trace (-vvv)", LevelName(VerbosityTrace))
	assert.Equal(t, "All (-vvvv+)", LevelName(7))
	assert.Equal(t, "Unknown (-1)", LevelName(-1))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
}

func TestLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	swapLogger(t, zap.New(core).Sugar())

	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithDocumentID(ctx, "PMID:123")
	ctx = WithComponent(ctx, "featurepath")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{
		FieldSessionID, "sess-1",
		FieldDocumentID, "PMID:123",
		FieldComponent, "featurepath",
	}, fields)

	LoggerFromContext(ctx).Info("replaced")
	require.Equal(t, 1, logs.Len())
	ctxMap := logs.All()[0].ContextMap()
	assert.Equal(t, "sess-1", ctxMap[FieldSessionID])
	assert.Equal(t, "PMID:123", ctxMap[FieldDocumentID])

	assert.Same(t, Logger, LoggerFromContext(context.Background()))
}

func TestComponentAndChildLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	swapLogger(t, zap.New(core).Sugar())

	child := ChildLogger(ComponentLogger("embedding.merge"), FieldInputs, 3)
	child.Infow("flushed", FieldCount, 10)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "embedding.merge", entry.LoggerName)
	assert.EqualValues(t, 3, entry.ContextMap()[FieldInputs])
	assert.EqualValues(t, 10, entry.ContextMap()[FieldCount])
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(VerbosityUser, OutputResults))
	assert.False(t, ShouldOutput(VerbosityUser, OutputProgress))
	assert.True(t, ShouldOutput(VerbosityInfo, OutputProgress))
	assert.False(t, ShouldOutput(VerbosityDebug, OutputSQLQueries))
	assert.True(t, ShouldOutput(VerbosityTrace, OutputSQLQueries))
	assert.True(t, ShouldOutput(VerbosityAll, OutputDataDump))
	assert.False(t, ShouldOutput(VerbosityTrace, OutputCategory(999)))

	assert.Equal(t, "path-resolution", CategoryName(OutputPathResolution))
	assert.Equal(t, "unknown", CategoryName(OutputCategory(999)))
	assert.Len(t, EnabledCategories(VerbosityUser), 3)
	assert.Len(t, EnabledCategories(VerbosityAll), len(categories))
	assert.Equal(t, []OutputCategory{OutputResults, OutputErrors, OutputUserStatus}, EnabledCategories(VerbosityUser))
	assert.Equal(t, "maximum verbosity", VerbosityDescription(9))
}

func BenchmarkGlobalInfow(b *testing.B) {
	prev := Logger
	Logger = zap.NewNop().Sugar()
	defer func() { Logger = prev }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Logger.Infow("merged", FieldCount, i)
	}
}

func BenchmarkParallelLogging(b *testing.B) {
	prev := Logger
	Logger = zap.NewNop().Sugar()
	defer func() { Logger = prev }()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			ComponentLogger("merge").Infow("parallel log", FieldIndex, i)
			i++
		}
	})
}
