// Package dispatch runs a single decoded request through resolution,
// argument validation and handler execution.
//
// Every failure leaving Dispatch is a *model.CapabilityError, so callers only
// need to map error kinds onto their wire format.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/schema"
)

// Kind はリクエスト種別
type Kind string

const (
	KindListTools             Kind = "list_tools"
	KindCallTool              Kind = "call_tool"
	KindListResources         Kind = "list_resources"
	KindReadResource          Kind = "read_resource"
	KindListResourceTemplates Kind = "list_resource_templates"
)

// Stage はリクエスト処理の段階（ログ用）
type Stage string

const (
	StageReceived  Stage = "received"
	StageResolved  Stage = "resolved"
	StageValidated Stage = "validated"
	StageExecuted  Stage = "executed"
	StageResponded Stage = "responded"
	StageFailed    Stage = "failed"
)

// Request はdispatch対象のリクエスト
type Request struct {
	Kind      Kind
	Name      string         // call_tool のツール名
	URI       string         // read_resource のURI
	Arguments map[string]any // call_tool の引数
}

// Recorder はdispatch結果の記録先（metrics.Collectorが実装）
type Recorder interface {
	RecordDispatch(kind string, err error, duration time.Duration)
	RecordToolCall(tool string, isError bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordDispatch(string, error, time.Duration) {}
func (nopRecorder) RecordToolCall(string, bool) {}

// Engine はリクエストを1件ずつ処理する
type Engine struct {
	mu       sync.Mutex
	registry *capability.Registry
	recorder Recorder
	logger   *zap.Logger
}

// Option はEngineの設定オプション
type Option func(*Engine)

// WithRecorder はメトリクス記録先を設定
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger はロガーを設定
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine は新しいEngineを生成
func NewEngine(registry *capability.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "dispatch"))
	return e
}

// Dispatch はリクエストを処理して結果を返す
// 同時に処理するリクエストは常に1件
func (e *Engine) Dispatch(ctx context.Context, req *Request) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req == nil {
		return nil, model.NewCapabilityError(model.KindInvalidArgument, "request is required")
	}

	start := time.Now()
	log := e.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("kind", string(req.Kind)),
	)
	log.Debug("request", zap.String("stage", string(StageReceived)))

	result, err := e.dispatch(ctx, log, req)

	e.recorder.RecordDispatch(string(req.Kind), err, time.Since(start))
	if err != nil {
		capErr := model.AsCapabilityError(err)
		fields := []zap.Field{
			zap.String("stage", string(StageFailed)),
			zap.String("error_kind", string(capErr.Kind)),
			zap.String("error", capErr.Message),
		}
		// 呼び出し側の誤りはdebug、ハンドラー内部の失敗はwarn
		if model.IsKind(capErr, model.KindHandlerFailure) {
			log.Warn("request", append(fields, zap.Error(capErr.Unwrap()))...)
		} else {
			log.Debug("request", fields...)
		}
		return nil, capErr
	}

	log.Debug("request",
		zap.String("stage", string(StageResponded)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (e *Engine) dispatch(ctx context.Context, log *zap.Logger, req *Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.AsCapabilityError(err)
	}

	switch req.Kind {
	case KindListTools:
		return &model.ToolsListResult{Tools: e.registry.ListTools()}, nil
	case KindListResourceTemplates:
		return &model.ResourceTemplatesListResult{ResourceTemplates: e.registry.ListResourceTemplates()}, nil
	case KindListResources:
		resources, err := e.registry.ListResources(ctx)
		if err != nil {
			return nil, err
		}
		return &model.ResourcesListResult{Resources: resources}, nil
	case KindCallTool:
		return e.callTool(ctx, log, req)
	case KindReadResource:
		return e.readResource(ctx, log, req)
	default:
		return nil, model.NewCapabilityError(model.KindUnknownCapability, "Unknown request kind: %s", req.Kind)
	}
}

func (e *Engine) callTool(ctx context.Context, log *zap.Logger, req *Request) (*model.ToolsCallResult, error) {
	if req.Name == "" {
		return nil, model.NewFieldError(model.KindMissingField, "name", "missing required field: name")
	}

	tool, err := e.registry.ResolveTool(req.Name)
	if err != nil {
		return nil, err
	}
	log.Debug("request", zap.String("stage", string(StageResolved)), zap.String("tool", req.Name))

	args, err := schema.Validate(tool.Tool.InputSchema, req.Arguments)
	if err != nil {
		e.recorder.RecordToolCall(req.Name, true)
		return nil, err
	}
	log.Debug("request", zap.String("stage", string(StageValidated)))

	var result *model.ToolsCallResult
	err = guard(func() error {
		var herr error
		result, herr = tool.Handler(ctx, args)
		return herr
	})
	if err == nil && result == nil {
		err = fmt.Errorf("tool %s returned no result", req.Name)
	}
	if err != nil {
		e.recorder.RecordToolCall(req.Name, true)
		return nil, err
	}

	e.recorder.RecordToolCall(req.Name, result.IsError)
	log.Debug("request", zap.String("stage", string(StageExecuted)), zap.Bool("is_error", result.IsError))
	return result, nil
}

func (e *Engine) readResource(ctx context.Context, log *zap.Logger, req *Request) (*model.ResourcesReadResult, error) {
	if req.URI == "" {
		return nil, model.NewCapabilityError(model.KindInvalidURI, "Invalid resource URI: (empty)")
	}

	read, err := e.registry.ResolveResource(req.URI)
	if err != nil {
		return nil, err
	}
	log.Debug("request", zap.String("stage", string(StageResolved)), zap.String("uri", req.URI))

	var result *model.ResourcesReadResult
	err = guard(func() error {
		var rerr error
		result, rerr = read(ctx, req.URI)
		return rerr
	})
	if err == nil && result == nil {
		err = fmt.Errorf("resource %s returned no contents", req.URI)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("request", zap.String("stage", string(StageExecuted)))
	return result, nil
}

// guard はハンドラー内のpanicをHandlerFailureに変換する
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &model.CapabilityError{
				Kind:    model.KindHandlerFailure,
				Message: fmt.Sprintf("handler panic: %v", r),
				Err:     fmt.Errorf("%v\n%s", r, debug.Stack()),
			}
		}
	}()
	return fn()
}
