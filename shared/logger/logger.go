package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки для логгера.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json или console
	OutputPath string // пусто = stdout
}

// New создает zap.Logger по конфигурации.
// Некорректный уровень не является ошибкой: пишем предупреждение в stderr и используем info.
func New(cfg Config) (*zap.Logger, error) {
	zapConfig := zap.Config{
		Level:             parseLevel(cfg.Level),
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          normalizeEncoding(cfg.Encoding),
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{outputPath(cfg.OutputPath)},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func parseLevel(raw string) zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		value = "info"
	}
	if err := level.UnmarshalText([]byte(value)); err != nil {
		// Логгера еще нет, поэтому stderr
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", raw, err)
		level.SetLevel(zap.InfoLevel)
	}
	return level
}

func normalizeEncoding(raw string) string {
	switch enc := strings.ToLower(raw); enc {
	case "console", "json":
		return enc
	default:
		return "json"
	}
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	return enc
}

func outputPath(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
