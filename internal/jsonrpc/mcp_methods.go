package jsonrpc

import (
	"context"

	"github.com/brbranch/mcp-notes/internal/dispatch"
	"github.com/brbranch/mcp-notes/internal/model"
)

// ServerName は initialize で名乗るサーバー名
const ServerName = "mcp-notes"

// ServerVersion はサーバーのバージョン（ビルド時に設定可能）
var ServerVersion = "0.1.0"

// handleInitialize は initialize メソッドを処理
func (h *Handler) handleInitialize(ctx context.Context, params any) (any, error) {
	// パラメータをパース（検証は最小限）
	var p model.InitializeParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	return &model.InitializeResult{
		ProtocolVersion: model.ProtocolVersion,
		ServerInfo:      h.info,
		Capabilities: model.Capabilities{
			Tools:     &model.ToolsCapability{},
			Resources: &model.ResourcesCapability{},
		},
	}, nil
}

// handlePing は ping メソッドを処理
func (h *Handler) handlePing(ctx context.Context, params any) (any, error) {
	return struct{}{}, nil
}

// handleToolsList は tools/list メソッドを処理
func (h *Handler) handleToolsList(ctx context.Context, params any) (any, error) {
	return h.engine.Dispatch(ctx, &dispatch.Request{Kind: dispatch.KindListTools})
}

// handleToolsCall は tools/call メソッドを処理
// 未登録ツール・引数不正はJSON-RPCエラー、ツール自身の失敗はisError付きの結果
func (h *Handler) handleToolsCall(ctx context.Context, params any) (any, error) {
	var p model.ToolsCallParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	return h.engine.Dispatch(ctx, &dispatch.Request{
		Kind:      dispatch.KindCallTool,
		Name:      p.Name,
		Arguments: p.Arguments,
	})
}

// handleResourcesList は resources/list メソッドを処理
func (h *Handler) handleResourcesList(ctx context.Context, params any) (any, error) {
	return h.engine.Dispatch(ctx, &dispatch.Request{Kind: dispatch.KindListResources})
}

// handleResourcesRead は resources/read メソッドを処理
func (h *Handler) handleResourcesRead(ctx context.Context, params any) (any, error) {
	var p model.ResourcesReadParams
	if err := mapParams(params, &p); err != nil {
		return nil, err
	}

	return h.engine.Dispatch(ctx, &dispatch.Request{Kind: dispatch.KindReadResource, URI: p.URI})
}

// handleResourceTemplatesList は resources/templates/list メソッドを処理
func (h *Handler) handleResourceTemplatesList(ctx context.Context, params any) (any, error) {
	return h.engine.Dispatch(ctx, &dispatch.Request{Kind: dispatch.KindListResourceTemplates})
}
