// Package logging builds the zap logger used across mcp-notes.
//
// stdout carries the JSON-RPC stream under the stdio transport, so every
// logger built here writes to stderr unless OutputPaths says otherwise.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brbranch/mcp-notes/internal/model"
)

// toZapConfig はLoggingConfigをzap.Configに変換する
func toZapConfig(lc model.LoggingConfig) (zap.Config, error) {
	var config zap.Config

	switch lc.Encoding {
	case "console":
		config = zap.NewDevelopmentConfig()
	default:
		config = zap.NewProductionConfig()
	}

	if lc.Level != "" {
		level, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return config, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
		config.Level = zap.NewAtomicLevelAt(level)
	}

	if lc.Encoding != "" {
		config.Encoding = lc.Encoding
	}
	config.Development = lc.Development

	config.OutputPaths = []string{"stderr"}
	if len(lc.OutputPaths) > 0 {
		config.OutputPaths = lc.OutputPaths
	}
	config.ErrorOutputPaths = []string{"stderr"}

	return config, nil
}

// New は設定からロガーを生成する
func New(lc model.LoggingConfig) (*zap.Logger, error) {
	config, err := toZapConfig(lc)
	if err != nil {
		return nil, err
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return logger, nil
}
