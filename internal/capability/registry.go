// Package capability holds the tools and resources a server declares and
// resolves invocation targets by name or URI.
package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yosida95/uritemplate/v3"
	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/schema"
)

// ToolHandler はバリデーション・デフォルト適用済みの引数でツールを実行する
type ToolHandler func(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error)

// ResourceListFunc はプロバイダが現在公開しているリソースを返す
type ResourceListFunc func(ctx context.Context) ([]model.Resource, error)

// ResourceReadFunc はURIで指定されたリソースを読み込む
type ResourceReadFunc func(ctx context.Context, uri string) (*model.ResourcesReadResult, error)

// ResourceProvider はURIプレフィックス単位のリソース提供者
type ResourceProvider struct {
	Prefix string // 例: "note:///"
	List   ResourceListFunc
	Read   ResourceReadFunc
}

// RegisteredTool はツール宣言とハンドラーの組
type RegisteredTool struct {
	Tool    model.Tool
	Handler ToolHandler
}

// エラー定義
var (
	ErrToolCollision     = errors.New("tool already registered")
	ErrProviderCollision = errors.New("resource provider already registered")
	ErrInvalidTool       = errors.New("invalid tool")
	ErrInvalidProvider   = errors.New("invalid resource provider")
	ErrInvalidTemplate   = errors.New("invalid resource template")
)

// Registry はツール・リソースの登録簿
// 登録は起動時のみ、実行時の再登録はしない
type Registry struct {
	mu        sync.RWMutex
	order     []string
	tools     map[string]*RegisteredTool
	providers []ResourceProvider
	templates []model.ResourceTemplate
	logger    *zap.Logger
}

// NewRegistry は空のRegistryを生成
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]*RegisteredTool),
		logger: logger.With(zap.String("component", "registry")),
	}
}

// RegisterTool はツールを登録する
// 名前重複・スキーマ不正はエラー
func (r *Registry) RegisterTool(tool model.Tool, handler ToolHandler) error {
	if tool.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTool)
	}
	if handler == nil {
		return fmt.Errorf("%w: tool '%s' has no handler", ErrInvalidTool, tool.Name)
	}
	if err := schema.Check(tool.InputSchema); err != nil {
		return fmt.Errorf("%w: tool '%s': %w", ErrInvalidTool, tool.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: '%s'", ErrToolCollision, tool.Name)
	}

	r.tools[tool.Name] = &RegisteredTool{Tool: tool, Handler: handler}
	r.order = append(r.order, tool.Name)

	r.logger.Debug("tool registered", zap.String("tool", tool.Name))
	return nil
}

// RegisterResourceProvider はリソースプロバイダを登録する
func (r *Registry) RegisterResourceProvider(p ResourceProvider) error {
	if p.Prefix == "" || p.List == nil || p.Read == nil {
		return fmt.Errorf("%w: prefix, list and read are required", ErrInvalidProvider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.Prefix == p.Prefix {
			return fmt.Errorf("%w: '%s'", ErrProviderCollision, p.Prefix)
		}
	}
	r.providers = append(r.providers, p)

	r.logger.Debug("resource provider registered", zap.String("prefix", p.Prefix))
	return nil
}

// RegisterResourceTemplate はリソーステンプレートを登録する
// テンプレート構文はRFC 6570として検証
func (r *Registry) RegisterResourceTemplate(t model.ResourceTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if _, err := uritemplate.New(t.URITemplate); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTemplate, t.URITemplate, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, t)
	return nil
}

// ListTools は登録順のツール宣言を返す
func (r *Registry) ListTools() []model.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]model.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name].Tool)
	}
	return tools
}

// ListResources は全プロバイダのリソースを都度問い合わせて返す
func (r *Registry) ListResources(ctx context.Context) ([]model.Resource, error) {
	r.mu.RLock()
	providers := append([]ResourceProvider(nil), r.providers...)
	r.mu.RUnlock()

	resources := []model.Resource{}
	for _, p := range providers {
		items, err := p.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list resources for %s: %w", p.Prefix, err)
		}
		resources = append(resources, items...)
	}
	return resources, nil
}

// ListResourceTemplates は登録済みのテンプレートを返す
func (r *Registry) ListResourceTemplates() []model.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.ResourceTemplate{}, r.templates...)
}

// ResolveTool は名前からツールを引く
// 未登録なら UnknownCapability
func (r *Registry) ResolveTool(name string) (*RegisteredTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, model.NewCapabilityError(model.KindUnknownCapability, "Unknown tool: %s", name)
	}
	return tool, nil
}

// ResolveResource はURIに対応する読み込み関数を返す
// どのプレフィックスにも一致しなければ InvalidUri（最長一致）
func (r *Registry) ResolveResource(uri string) (ResourceReadFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *ResourceProvider
	for i := range r.providers {
		p := &r.providers[i]
		if strings.HasPrefix(uri, p.Prefix) && (best == nil || len(p.Prefix) > len(best.Prefix)) {
			best = p
		}
	}
	if best == nil {
		return nil, model.NewCapabilityError(model.KindInvalidURI, "Invalid resource URI: %s", uri)
	}
	return best.Read, nil
}

// BindArguments は引数mapを構造体にマッピングする
func BindArguments(args map[string]any, target any) error {
	if args == nil {
		return nil
	}

	// mapをJSONに変換してから構造体にアンマーシャル
	b, err := json.Marshal(args)
	if err != nil {
		return model.NewCapabilityError(model.KindInvalidArgument, "invalid arguments: %v", err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return model.NewCapabilityError(model.KindInvalidArgument, "invalid arguments: %v", err)
	}
	return nil
}
