// Package config loads, validates and saves the mcp-notes configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/brbranch/mcp-notes/internal/model"
)

// DefaultPort はHTTP transportの既定ポート
const DefaultPort = 8765

// ErrInvalidConfig は設定値不正エラー
var ErrInvalidConfig = errors.New("invalid config")

// Manager は設定の読み書きを管理する
type Manager struct {
	mu         sync.RWMutex
	config     *model.Config
	configPath string
}

// NewManager は新しいManagerを作成する
// configPathが空文字の場合、デフォルトパス（~/.mcp_notes/config.json）を使用
func NewManager(configPath string) (*Manager, error) {
	// configPathが空の場合はデフォルトパスを使用
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	expanded, err := ExpandTilde(configPath)
	if err != nil {
		return nil, err
	}
	configPath = expanded

	// デフォルトのノートディレクトリを取得
	notesDir, err := GetDefaultNotesDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get default notes dir: %w", err)
	}

	return &Manager{
		config:     DefaultConfig(configPath, notesDir),
		configPath: configPath,
	}, nil
}

// NewManagerWithConfig は指定した設定でManagerを作成する（テスト用）
func NewManagerWithConfig(cfg *model.Config) *Manager {
	return &Manager{
		config:     cfg,
		configPath: cfg.Paths.ConfigPath,
	}
}

// Load は設定ファイルを読み込む
// ファイルが存在しない場合はデフォルト設定を使用（エラーなし）
// ファイルに無い項目はデフォルト値のまま残る
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// デフォルトの上にファイル内容を重ねる
	config := *m.config
	if isYAML(m.configPath) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Paths.ConfigPath = m.configPath
	m.config = &config
	return nil
}

// Save は設定ファイルを保存する
func (m *Manager) Save() error {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	// ディレクトリを作成
	if err := EnsureDir(filepath.Dir(m.configPath)); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(m.configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 一時ファイルに書き込み（atomicな保存のため）
	tmpFile := m.configPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	// 一時ファイルを本番ファイルにリネーム
	if err := os.Rename(tmpFile, m.configPath); err != nil {
		os.Remove(tmpFile) // クリーンアップ
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	return nil
}

// GetConfig は現在の設定を返す
func (m *Manager) GetConfig() *model.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetConfigPath は設定ファイルパスを返す
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Resolve は環境変数上書き・パス展開・検証を行った設定を返す
// Manager内の設定は変更しない
func (m *Manager) Resolve() (*model.Config, error) {
	m.mu.RLock()
	config := *m.config
	m.mu.RUnlock()

	ApplyEnvOverrides(&config)

	dir, err := ExpandTilde(config.Notes.Dir)
	if err != nil {
		return nil, err
	}
	config.Notes.Dir = dir

	if config.Notes.SQLitePath != nil {
		p, err := ExpandTilde(*config.Notes.SQLitePath)
		if err != nil {
			return nil, err
		}
		config.Notes.SQLitePath = &p
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate は設定値を検証する
func Validate(config *model.Config) error {
	switch config.Transport.Default {
	case model.TransportStdio, model.TransportHTTP:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, config.Transport.Default)
	}

	if config.Transport.Port < 0 || config.Transport.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, config.Transport.Port)
	}

	switch config.Notes.Backend {
	case model.BackendFile, model.BackendSQLite:
		if config.Notes.Dir == "" {
			return fmt.Errorf("%w: notes.dir is required for backend %q", ErrInvalidConfig, config.Notes.Backend)
		}
	case model.BackendMemory:
	default:
		return fmt.Errorf("%w: unknown notes backend %q", ErrInvalidConfig, config.Notes.Backend)
	}

	return nil
}

// SQLitePath はsqliteバックエンドのDBパスを返す（未指定なら Dir/notes.db）
func SQLitePath(config *model.Config) string {
	if config.Notes.SQLitePath != nil && *config.Notes.SQLitePath != "" {
		return *config.Notes.SQLitePath
	}
	return filepath.Join(config.Notes.Dir, DefaultSQLiteFile)
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig(configPath, notesDir string) *model.Config {
	return &model.Config{
		Transport: model.TransportConfig{
			Default: model.TransportStdio,
			Host:    "127.0.0.1",
			Port:    DefaultPort,
		},
		Notes: model.NotesConfig{
			Backend: model.BackendFile,
			Dir:     notesDir,
		},
		Toolkit: model.ToolkitConfig{
			Greeting:   false,
			Calculator: false,
		},
		Logging: model.LoggingConfig{
			Level: "info",
		},
		Paths: model.PathsConfig{
			ConfigPath: configPath,
		},
	}
}
