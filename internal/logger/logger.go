package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logDirMode = 0o700

// Options configures the file logger. Stdout carries answers and stderr the
// live view, so logs only ever go to File.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a JSON logger writing to a rotated file. An empty File yields a
// no-op logger.
func New(opts Options) (*zap.Logger, error) {
	if strings.TrimSpace(opts.File) == "" {
		return zap.NewNop(), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), logDirMode); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    positiveOr(opts.MaxSizeMB, 10),
		MaxBackups: positiveOr(opts.MaxBackups, 3),
		MaxAge:     positiveOr(opts.MaxAgeDays, 28),
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zap.NewAtomicLevelAt(ParseLevel(opts.Level)),
	)

	return zap.New(core, zap.AddCaller()), nil
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
