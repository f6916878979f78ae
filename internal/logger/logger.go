package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
)

func ParseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "error":
		return ERROR, nil
	case "warn":
		return WARN, nil
	case "info":
		return INFO, nil
	case "debug":
		return DEBUG, nil
	}
	return INFO, fmt.Errorf("invalid log level: %s", lvl)
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case ERROR:
		return zapcore.ErrorLevel
	case WARN:
		return zapcore.WarnLevel
	case DEBUG:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is a leveled logger backed by zap.
type Logger struct {
	sugared *zap.SugaredLogger
}

// New creates a new Logger. pretty selects a colored console encoder instead
// of JSON.
func New(level Level, pretty bool) *Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())

	base, err := cfg.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		// Only an invalid output path can fail here, and the paths are fixed.
		panic(err)
	}

	return &Logger{sugared: base.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugared: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger, e.g. an observer in tests.
func FromZap(base *zap.Logger) *Logger {
	return &Logger{sugared: base.Sugar()}
}

// Errorf prints a formatted error message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.sugared.Errorf(format, v...)
}

// Warnf prints a formatted warning message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.sugared.Warnf(format, v...)
}

// Infof prints a formatted info message.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.sugared.Infof(format, v...)
}

// Debugf prints a formatted debug message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.sugared.Debugf(format, v...)
}

// With returns a child logger that adds key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugared: l.sugared.With(keysAndValues...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugared.Sync()
}
