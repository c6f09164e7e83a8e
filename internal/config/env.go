package config

import (
	"os"

	"github.com/brbranch/mcp-notes/internal/model"
)

// 環境変数名の定数
const (
	EnvNotesDir = "MCP_NOTES_DIR"
	EnvBackend  = "MCP_NOTES_BACKEND"
	EnvLogLevel = "MCP_NOTES_LOG_LEVEL"
)

// ApplyEnvOverrides は環境変数による設定上書きを適用する
// config を直接変更する
func ApplyEnvOverrides(config *model.Config) {
	if dir := os.Getenv(EnvNotesDir); dir != "" {
		config.Notes.Dir = dir
	}
	if backend := os.Getenv(EnvBackend); backend != "" {
		config.Notes.Backend = backend
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		config.Logging.Level = level
	}
}
