package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger. The zero value is usable and logs nothing,
// which keeps call sites free of nil checks.
type Logger struct {
	zap *zap.Logger
}

func NewLogger(level string) (*Logger, error) {
	// convert the text logging level to zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = lvl
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}

	return &Logger{zap: logger}, nil
}

// Debug logs a message at the debug level with optional fields.
func (l Logger) Debug(msg string, fields ...zap.Field) {
	l.writer().Debug(msg, fields...)
}

// Info logs a message at the info level with optional fields.
func (l Logger) Info(msg string, fields ...zap.Field) {
	l.writer().Info(msg, fields...)
}

// Warn logs a message at the warn level with optional fields.
func (l Logger) Warn(msg string, fields ...zapcore.Field) {
	l.writer().Warn(msg, fields...)
}

// Error logs a message at the error level with optional fields.
func (l Logger) Error(msg string, fields ...zap.Field) {
	l.writer().Error(msg, fields...)
}

func (l Logger) writer() *zap.Logger {
	if l.zap == nil {
		return zap.NewNop()
	}

	return l.zap
}
