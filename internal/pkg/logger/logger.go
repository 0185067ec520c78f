package logger

import (
	"context"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Define context key for trace ID
type contextKey string

const traceIDKey contextKey = "trace_id"

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// GetTraceID retrieves trace_id from context. It falls back to the active
// OpenTelemetry span when no explicit trace ID was attached.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(traceIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// WithTraceID returns a new context with the given trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Init sets up the global JSON logger writing to stdout.
func Init(level string) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	config.Encoding = "json"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "log_level"
	config.EncoderConfig.MessageKey = "msg"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.StacktraceKey = ""
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.OutputPaths = []string{"stdout"}

	log, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		log = zap.NewExample()
	}
	current.Store(log)
}

// SetLogger replaces the global logger and returns the previous one.
func SetLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return current.Swap(l)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = current.Load().Sync()
}

func withTrace(ctx context.Context, fields []zap.Field) []zap.Field {
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	return fields
}

// CONTEXT-AWARE LOGGING //

// CtxInfo logs an info message with trace ID
func CtxInfo(ctx context.Context, msg string, fields ...zap.Field) {
	current.Load().Info(msg, withTrace(ctx, fields)...)
}

func CtxError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	fields = withTrace(ctx, fields)
	fields = append(fields, zap.Error(err))
	current.Load().Error(msg, fields...)
}

// CtxDebug logs debug messages
func CtxDebug(ctx context.Context, msg string, fields ...zap.Field) {
	current.Load().Debug(msg, withTrace(ctx, fields)...)
}

// CtxWarn logs warnings
func CtxWarn(ctx context.Context, msg string, fields ...zap.Field) {
	current.Load().Warn(msg, withTrace(ctx, fields)...)
}

// NON-CONTEXT LOGGING //

func Info(msg string, fields ...zap.Field) {
	current.Load().Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	current.Load().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	current.Load().Warn(msg, fields...)
}

func Error(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	current.Load().Error(msg, fields...)
}
