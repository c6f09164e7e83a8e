// Package bootstrap provides common initialization logic for mcp-notes.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/config"
	"github.com/brbranch/mcp-notes/internal/dispatch"
	"github.com/brbranch/mcp-notes/internal/jsonrpc"
	"github.com/brbranch/mcp-notes/internal/logging"
	"github.com/brbranch/mcp-notes/internal/metrics"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/notes"
	"github.com/brbranch/mcp-notes/internal/service"
	"github.com/brbranch/mcp-notes/internal/store"
	"github.com/brbranch/mcp-notes/internal/toolkit"
)

// Services は初期化されたサービス群を保持
type Services struct {
	Config      *model.Config
	Logger      *zap.Logger
	Store       store.Store
	NoteService service.NoteService
	Registry    *capability.Registry
	Engine      *dispatch.Engine
	Handler     *jsonrpc.Handler
	Metrics     *metrics.Collector
}

// Initialize は設定を読み込み、必要なサービスを初期化する
func Initialize(ctx context.Context, configPath string) (*Services, func(), error) {
	// 設定マネージャーの作成
	configManager, err := config.NewManager(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	// 設定ファイルの読み込み
	if err := configManager.Load(); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := configManager.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	return InitializeWithConfig(ctx, cfg)
}

// InitializeWithConfig は解決済みの設定からサービスを組み立てる
func InitializeWithConfig(ctx context.Context, cfg *model.Config) (*Services, func(), error) {
	// 1. Logger初期化
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// 2. Store初期化
	st, err := newStore(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	if err := st.Initialize(ctx); err != nil {
		st.Close()
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
		_ = logger.Sync()
	}

	// 3. Capability登録
	noteService := service.NewNoteService(st, logger)
	registry := capability.NewRegistry(logger)
	if err := notes.Register(registry, noteService); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to register note capabilities: %w", err)
	}
	toolkitOpts := toolkit.Options{
		Greeting:   cfg.Toolkit.Greeting,
		Calculator: cfg.Toolkit.Calculator,
	}
	if err := toolkit.Register(registry, toolkitOpts); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to register toolkit: %w", err)
	}

	// 4. Engine / Handler
	collector := metrics.NewCollector("", logger)
	engine := dispatch.NewEngine(registry,
		dispatch.WithRecorder(collector),
		dispatch.WithLogger(logger),
	)
	handler := jsonrpc.New(engine, jsonrpc.WithLogger(logger))

	logger.Info("services initialized",
		zap.String("backend", cfg.Notes.Backend),
		zap.String("notesDir", cfg.Notes.Dir),
		zap.Int("tools", len(registry.ListTools())),
	)

	return &Services{
		Config:      cfg,
		Logger:      logger,
		Store:       st,
		NoteService: noteService,
		Registry:    registry,
		Engine:      engine,
		Handler:     handler,
		Metrics:     collector,
	}, cleanup, nil
}

// newStore は設定のbackendに応じたStoreを生成する
func newStore(cfg *model.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Notes.Backend {
	case model.BackendSQLite:
		dbPath := config.SQLitePath(cfg)
		// DBファイルの親ディレクトリを作成
		if err := config.EnsureDir(filepath.Dir(dbPath)); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err := store.NewSQLiteStore(dbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
		return st, nil
	case model.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		st, err := store.NewFileStore(cfg.Notes.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file store: %w", err)
		}
		return st, nil
	}
}
