package logger

import (
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	z *zap.Logger

	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
	Debug   *log.Logger
	HTTP    *log.Logger
)

func init() {
	bind(zap.NewNop())
}

// Setup replaces the no-op logger with a JSON production logger at level
// (debug, info, warn, error). Unknown values fall back to info.
func Setup(level string) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Printf("logger setup failed, keeping no-op logger: %v", err)
		return
	}
	bind(built)
}

// Z returns the structured logger for call sites that want typed fields.
func Z() *zap.Logger {
	return z
}

// Sync flushes buffered entries. Call it on shutdown.
func Sync() {
	_ = z.Sync()
}

func bind(l *zap.Logger) {
	z = l
	Info = mustStd(l.Named("info"), zapcore.InfoLevel)
	Warning = mustStd(l.Named("warning"), zapcore.WarnLevel)
	Error = mustStd(l.Named("error"), zapcore.ErrorLevel)
	Debug = mustStd(l.Named("debug"), zapcore.DebugLevel)
	HTTP = mustStd(l.Named("http"), zapcore.InfoLevel)
}

func mustStd(l *zap.Logger, level zapcore.Level) *log.Logger {
	std, err := zap.NewStdLogAt(l, level)
	if err != nil {
		return zap.NewStdLog(l)
	}
	return std
}

func parseLevel(v string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
