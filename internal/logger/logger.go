package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry so shipped logs can be filtered
const ServiceName = "fleamarket"

// New creates a new structured logger. level overrides the environment
// default of debug in development and info in production.
func New(env, level string) (*zap.Logger, error) {
	core := newCore(zapcore.Lock(os.Stdout), env, ParseLevel(level, env))

	// Always log to stdout for container compatibility
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.Fields(zap.String("service", ServiceName)),
	)

	return logger, nil
}

// ParseLevel reads a level name, falling back to the environment default
// when it is empty or unknown
func ParseLevel(raw, env string) zapcore.Level {
	if lvl, err := zapcore.ParseLevel(strings.TrimSpace(raw)); err == nil && raw != "" {
		return lvl
	}
	if env == "production" {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

func newCore(out zapcore.WriteSyncer, env string, level zapcore.Level) zapcore.Core {
	if env == "production" {
		cfg := zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), out, level)
	}

	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), out, level)
}

// NewWithDefaults creates a logger from SERVER_ENV and LOG_LEVEL
func NewWithDefaults() *zap.Logger {
	env := os.Getenv("SERVER_ENV")
	if env == "" {
		env = "development"
	}

	logger, err := New(env, os.Getenv("LOG_LEVEL"))
	if err != nil {
		// Fallback to basic logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
