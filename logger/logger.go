package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field aliases zap.Field so callers don't import zap directly.
type Field = zap.Field

// Logger provides the three log levels used throughout the codebase.
type Logger interface {
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// zapLogger implements Logger using a SugaredLogger internally.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.sugar.Infow(msg, zapFieldsToMap(fields)...)
}
func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.sugar.Warnw(msg, zapFieldsToMap(fields)...)
}
func (l *zapLogger) Error(msg string, fields ...Field) {
	l.sugar.Errorw(msg, zapFieldsToMap(fields)...)
}

// NewZapLogger creates a production-ready logger (JSON encoding, level INFO).
func NewZapLogger() (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: z.Sugar()}, nil
}

// Field constructors, re-exported so call sites stay terse.
func String(key, val string) Field { return zap.String(key, val) }

func Float64(key string, val float64) Field { return zap.Float64(key, val) }

func Int(key string, val int) Field { return zap.Int(key, val) }

func Bool(key string, val bool) Field { return zap.Bool(key, val) }

func Err(err error) Field { return zap.Error(err) }

// Helper – converts a Field slice to key/value pairs for SugaredLogger.
func zapFieldsToMap(fields []Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Interface)
	}
	return out
}
