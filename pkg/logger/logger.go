// Package logger wraps zap for application-wide structured logging.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	global     *Logger
	globalOnce sync.Once
)

// New creates a logger at the given level. Development mode uses the console
// encoder with colored levels; otherwise output is JSON.
func New(level string, development bool) (*Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: base.Sugar()}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Default returns the process-wide logger, creating an info-level production
// logger on first use.
func Default() *Logger {
	globalOnce.Do(func() {
		if global != nil {
			return
		}
		l, err := New("info", false)
		if err != nil {
			l = NewNop()
		}
		global = l
	})
	return global
}

// SetDefault replaces the process-wide logger. Call before the first Default.
func SetDefault(l *Logger) {
	global = l
}

// With returns a logger with additional key/value fields attached.
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}
