package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field names shared by all components, so logs of one feature path, one
// merge or one import can be filtered on the same keys.
const (
	FieldSessionID  = "session_id"  // replacement session
	FieldDocumentID = "document_id" // document file or identifier
	FieldComponent  = "component"

	FieldFeaturePath = "feature_path"
	FieldFeature     = "feature"
	FieldType        = "type"
	FieldSegment     = "segment"
	FieldIndex       = "index" // array index, or input number in a merge

	FieldCount      = "count"
	FieldSize       = "size"
	FieldInputs     = "inputs"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"

	FieldFile = "file"
	FieldPath = "path"
)

type contextKey string

// contextFields are copied from a context into log fields, in this order.
var contextFields = []string{FieldSessionID, FieldDocumentID, FieldComponent}

func withField(ctx context.Context, key, value string) context.Context {
	return context.WithValue(ctx, contextKey(key), value)
}

// WithSessionID adds a replacement session ID to the context for logging
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withField(ctx, FieldSessionID, sessionID)
}

// WithDocumentID adds a document ID to the context for logging
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return withField(ctx, FieldDocumentID, documentID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return withField(ctx, FieldComponent, component)
}

// FieldsFromContext returns the key-value pairs stored with the With*
// helpers, skipping empty values.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	for _, key := range contextFields {
		if v, ok := ctx.Value(contextKey(key)).(string); ok && v != "" {
			fields = append(fields, key, v)
		}
	}
	return fields
}

// LoggerFromContext returns the global logger with the context fields attached.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a logger named after a component. Constructors
// take it as their default:
//
//	func NewMerger(opts ...MergeOption) *Merger {
//	    m := &Merger{logger: logger.ComponentLogger("embedding")}
//	    ...
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger returns parent with additional fields, e.g. the expression of
// a feature path.
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
