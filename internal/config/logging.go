package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logFileName is created under the output base so every run leaves a
// processing log next to its results.
const logFileName = "structur.log"

// NewLogger builds a console logger. Verbose raises the level to Debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return cfg.Build()
}

// NewRunLogger builds a logger that tees console output with a log file in
// the output base, mirroring where the run's results land.
func NewRunLogger(verbose bool, outputBase string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	if err := os.MkdirAll(outputBase, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	logPath := filepath.Join(outputBase, logFileName)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(logFile),
		level,
	)

	return zap.New(zapcore.NewTee(consoleCore, fileCore)), nil
}
