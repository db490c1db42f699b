package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Config selects the level and encoding of the global logger.
type Config struct {
	Level  string `mapstructure:"level" default:"info" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" default:"console" validate:"omitempty,oneof=console json"`
}

// Init initializes the global structured logger.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	if logger != nil {
		_ = logger.Sync()
	}
	logger = l.Sugar()
	return nil
}

// New builds a zap logger writing to stderr.
// Console output prefixes every line with the bracketed level, e.g. "[INFO]".
func New(cfg Config) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.Sampling = nil

	if cfg.Format == "json" {
		config.Encoding = "json"
		config.EncoderConfig.TimeKey = "time"
		config.EncoderConfig.MessageKey = "message"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config.Encoding = "console"
		config.EncoderConfig.TimeKey = ""
		config.EncoderConfig.CallerKey = ""
		config.EncoderConfig.EncodeLevel = bracketLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// Logger returns the global logger instance.
func Logger() *zap.SugaredLogger {
	if logger == nil {
		if err := Init(Config{}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			logger = zap.NewNop().Sugar()
		}
	}
	return logger
}

// Replace swaps the global logger, returning a func that restores the previous one.
func Replace(l *zap.Logger) func() {
	prev := logger
	logger = l.Sugar()
	return func() { logger = prev }
}

// Sync flushes any buffered entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger().Debugw(msg, args...)
}

// Info logs an info message.
func Info(msg string, args ...any) {
	Logger().Infow(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger().Warnw(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger().Errorw(msg, args...)
}
