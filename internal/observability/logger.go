package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents log severity
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a LOG_LEVEL value to a LogLevel, defaulting to info
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Log output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Logger is a structured logger with trace context support
type Logger struct {
	base        *zap.Logger
	serviceName string
}

var defaultLogger *Logger
var loggerOnce sync.Once

// NewLogger creates a new structured logger writing JSON to stdout
func NewLogger(serviceName string, minLevel LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, serviceName, minLevel, FormatJSON)
}

// NewLoggerTo creates a logger writing to w in the given format
func NewLoggerTo(w io.Writer, serviceName string, minLevel LogLevel, format string) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if format == FormatConsole {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), minLevel.zapLevel())
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).
		With(zap.String("service", serviceName))

	return &Logger{base: base, serviceName: serviceName}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{base: zap.NewNop(), serviceName: "nop"}
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		serviceName := os.Getenv("SERVICE_NAME")
		if serviceName == "" {
			serviceName = "photo-gallery"
		}

		format := FormatJSON
		if strings.EqualFold(os.Getenv("LOG_FORMAT"), FormatConsole) {
			format = FormatConsole
		}

		defaultLogger = NewLoggerTo(os.Stdout, serviceName, ParseLevel(os.Getenv("LOG_LEVEL")), format)
	})
	return defaultLogger
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// WithField returns a new logger with the field added
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		base:        l.base.With(zap.Any(key, value)),
		serviceName: l.serviceName,
	}
}

// WithFields returns a new logger with the fields added
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	if len(fields) == 0 {
		return l
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return &Logger{
		base:        l.base.With(zf...),
		serviceName: l.serviceName,
	}
}

// WithError returns a new logger carrying err
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		base:        l.base.With(zap.Error(err)),
		serviceName: l.serviceName,
	}
}

// WithContext returns a new logger with trace context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return l.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}
	return l
}

// Debug logs at debug level
func (l *Logger) Debug(msg string) {
	l.log(LevelDebug, msg)
}

// Debugf logs at debug level with formatting
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs at info level
func (l *Logger) Info(msg string) {
	l.log(LevelInfo, msg)
}

// Infof logs at info level with formatting
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs at warn level
func (l *Logger) Warn(msg string) {
	l.log(LevelWarn, msg)
}

// Warnf logs at warn level with formatting
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs at error level
func (l *Logger) Error(msg string) {
	l.log(LevelError, msg)
}

// Errorf logs at error level with formatting
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// log is always two frames below the caller of interest
func (l *Logger) log(level LogLevel, msg string) {
	switch level {
	case LevelDebug:
		l.base.Debug(msg)
	case LevelInfo:
		l.base.Info(msg)
	case LevelWarn:
		l.base.Warn(msg)
	default:
		l.base.Error(msg)
	}
}

// Convenience functions for package-level logging

// Debugf logs at debug level with formatting
func Debugf(format string, args ...interface{}) {
	GetLogger().log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs at info level
func Info(msg string) {
	GetLogger().log(LevelInfo, msg)
}

// Infof logs at info level with formatting
func Infof(format string, args ...interface{}) {
	GetLogger().log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf logs at warn level with formatting
func Warnf(format string, args ...interface{}) {
	GetLogger().log(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf logs at error level with formatting
func Errorf(format string, args ...interface{}) {
	GetLogger().log(LevelError, fmt.Sprintf(format, args...))
}

// WithField returns a logger with the field
func WithField(key string, value interface{}) *Logger {
	return GetLogger().WithField(key, value)
}

// WithContext returns a logger with trace context
func WithContext(ctx context.Context) *Logger {
	return GetLogger().WithContext(ctx)
}

// Custom attribute helpers for common fields
func PhotoID(id string) attribute.KeyValue {
	return attribute.String("photo_id", id)
}

func CollectionID(id string) attribute.KeyValue {
	return attribute.String("collection_id", id)
}

func CategoryID(id string) attribute.KeyValue {
	return attribute.String("category_id", id)
}

func Slug(slug string) attribute.KeyValue {
	return attribute.String("slug", slug)
}

func Operation(op string) attribute.KeyValue {
	return attribute.String("operation", op)
}

func Duration(d time.Duration) attribute.KeyValue {
	return attribute.Int64("duration_ms", d.Milliseconds())
}
