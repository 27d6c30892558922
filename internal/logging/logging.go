package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bluetecnologia/status_admin/internal/config"
)

// New builds the process logger: console output, plus a rotated JSON file
// when cfg.File is set.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return zap.New(newCore(cfg, level, zapcore.AddSync(os.Stdout)),
		zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newCore(cfg config.LoggingConfig, level zapcore.Level, console zapcore.WriteSyncer) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), console, level)
	if cfg.File == "" {
		return consoleCore
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(fileWriter), level),
		consoleCore,
	)
}
