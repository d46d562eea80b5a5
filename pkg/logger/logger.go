package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger so services share one logging surface.
type Logger struct {
	*zap.Logger
}

// New creates a logger for the given level and encoding ("json" or "console").
func New(level, encoding string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if encoding == "" {
		encoding = "json"
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = encoding
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zl, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: zl}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Field creates a generic structured field.
func Field(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// StringField creates a string field.
func StringField(key, value string) zap.Field {
	return zap.String(key, value)
}

// IntField creates an int field.
func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// ErrorField creates the conventional "error" field.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}
