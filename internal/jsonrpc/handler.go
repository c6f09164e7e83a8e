// Package jsonrpc implements JSON-RPC 2.0 handlers for mcp-notes.
package jsonrpc

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/dispatch"
	"github.com/brbranch/mcp-notes/internal/model"
)

// methodFunc はメソッド1つ分のハンドラー
type methodFunc func(ctx context.Context, params any) (any, error)

// Handler はJSON-RPCリクエストを処理する
type Handler struct {
	engine  *dispatch.Engine
	methods map[string]methodFunc
	info    model.ServerInfo
	logger  *zap.Logger
}

// Option はHandlerの設定オプション
type Option func(*Handler)

// WithLogger はロガーを設定
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithServerInfo は initialize で返すサーバー情報を設定
func WithServerInfo(info model.ServerInfo) Option {
	return func(h *Handler) {
		h.info = info
	}
}

// New は新しいHandlerを生成
func New(engine *dispatch.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		info: model.ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.methods = map[string]methodFunc{
		"initialize":               h.handleInitialize,
		"ping":                     h.handlePing,
		"tools/list":               h.handleToolsList,
		"tools/call":               h.handleToolsCall,
		"resources/list":           h.handleResourcesList,
		"resources/read":           h.handleResourcesRead,
		"resources/templates/list": h.handleResourceTemplatesList,
	}
	return h
}

// Handle はJSON-RPCリクエストをパースしてディスパッチ
// 戻り値は *model.Response または *model.ErrorResponse のJSON bytes
// 通知（notifications/* または id なし）の場合は nil を返す
func (h *Handler) Handle(ctx context.Context, requestBytes []byte) []byte {
	// 1. パース
	var req model.Request
	if err := json.Unmarshal(requestBytes, &req); err != nil {
		return h.encode(model.NewParseError(err.Error()))
	}

	// 2. バージョン確認
	if req.JSONRPC != "2.0" {
		return h.encode(model.NewInvalidRequest(req.ID, "jsonrpc must be 2.0"))
	}

	// 3. method確認
	if req.Method == "" {
		return h.encode(model.NewInvalidRequest(req.ID, "method is required"))
	}

	// 4. notifications/* は処理せず応答もしない
	if strings.HasPrefix(req.Method, "notifications/") {
		h.logger.Debug("notification received", zap.String("method", req.Method))
		return nil
	}

	// 5. ディスパッチ
	result, err := h.dispatch(ctx, req.Method, req.Params)

	// idを持たないリクエストは通知なので、処理はするが応答しない
	if !hasID(requestBytes) {
		if err != nil {
			h.logger.Debug("notification failed",
				zap.String("method", req.Method),
				zap.Error(err),
			)
		}
		return nil
	}

	if err != nil {
		return h.encode(h.mapError(req.ID, req.Method, err))
	}

	// 6. 成功レスポンス
	return h.encode(model.NewResponse(req.ID, result))
}

// hasID はリクエストに id メンバーがあるかを返す（"id": null も含む）
func hasID(requestBytes []byte) bool {
	var envelope struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(requestBytes, &envelope); err != nil {
		return true
	}
	return envelope.ID != nil
}

// dispatch はメソッドに応じて適切なハンドラーを呼び出す
func (h *Handler) dispatch(ctx context.Context, method string, params any) (any, error) {
	fn, ok := h.methods[method]
	if !ok {
		return nil, model.NewCapabilityError(model.KindUnknownCapability, "Method not found: %s", method)
	}
	return fn(ctx, params)
}

// mapError はエラーをJSON-RPCエラーに変換
func (h *Handler) mapError(id any, method string, err error) *model.ErrorResponse {
	capErr := model.AsCapabilityError(err)
	if capErr.Kind == model.KindHandlerFailure {
		h.logger.Error("request failed",
			zap.String("method", method),
			zap.Error(capErr.Unwrap()),
			zap.String("message", capErr.Message),
		)
	}
	return model.NewCapabilityErrorResponse(id, capErr)
}

func (h *Handler) encode(resp any) []byte {
	b, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		b, _ = json.Marshal(model.NewErrorResponse(nil, model.ErrCodeInternalError, "Internal error", err.Error()))
	}
	return b
}

// mapParams はparamsを構造体にマッピングする
func mapParams(params any, target any) error {
	if params == nil {
		return nil
	}

	// anyをJSONに変換してから構造体にアンマーシャル
	b, err := json.Marshal(params)
	if err != nil {
		return model.NewCapabilityError(model.KindInvalidArgument, "invalid params: %v", err)
	}
	if err := json.Unmarshal(b, target); err != nil {
		return model.NewCapabilityError(model.KindInvalidArgument, "invalid params: %v", err)
	}
	return nil
}
