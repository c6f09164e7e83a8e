//go:build e2e

package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brbranch/mcp-notes/internal/bootstrap"
	"github.com/brbranch/mcp-notes/internal/config"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/transport/stdio"
)

// RawResponse は汎用的なJSON-RPCレスポンス
type RawResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError はJSON-RPCエラー
type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// setupServices はfileバックエンドでサービス一式を構築する
func setupServices(t *testing.T) (*bootstrap.Services, string) {
	t.Helper()

	notesDir := filepath.Join(t.TempDir(), "notes")
	cfg := config.DefaultConfig("", notesDir)
	cfg.Toolkit.Greeting = true
	cfg.Toolkit.Calculator = true
	cfg.Logging.Level = "error"

	services, cleanup, err := bootstrap.InitializeWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to initialize services: %v", err)
	}
	t.Cleanup(cleanup)
	return services, notesDir
}

// request はJSON-RPCリクエストをエンコードする
func request(t *testing.T, id any, method string, params any) []byte {
	t.Helper()

	reqBytes, err := json.Marshal(model.Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return reqBytes
}

// call はHandlerにリクエストを渡し、レスポンスをデコードする
func call(t *testing.T, services *bootstrap.Services, method string, params any) *RawResponse {
	t.Helper()

	respBytes := services.Handler.Handle(context.Background(), request(t, 1, method, params))
	if respBytes == nil {
		t.Fatalf("%s: expected response, got nil", method)
	}

	var resp RawResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return &resp
}

// callTool はtools/callを呼び出し、成功したresultを返す
func callTool(t *testing.T, services *bootstrap.Services, name string, args map[string]any) *model.ToolsCallResult {
	t.Helper()

	resp := call(t, services, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	if resp.Error != nil {
		t.Fatalf("%s failed: %+v", name, resp.Error)
	}

	result := &model.ToolsCallResult{}
	decodeResult(t, resp, result)
	return result
}

// toolText はツール結果の最初のテキストを返す
func toolText(t *testing.T, result *model.ToolsCallResult) string {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return result.Content[0].Text
}

// decodeResult はRawResponse.Resultを型付き構造体に変換する
func decodeResult(t *testing.T, resp *RawResponse, target any) {
	t.Helper()

	resultBytes, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}
	if err := json.Unmarshal(resultBytes, target); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
}

// runStdio は改行区切りのリクエスト群をstdio transportに流し、応答行を返す
func runStdio(t *testing.T, services *bootstrap.Services, lines ...string) []RawResponse {
	t.Helper()

	var out bytes.Buffer
	server := stdio.New(services.Handler,
		stdio.WithReader(strings.NewReader(strings.Join(lines, "\n")+"\n")),
		stdio.WithWriter(&out),
	)
	if err := server.Run(context.Background()); err != nil {
		t.Fatalf("stdio server failed: %v", err)
	}

	var responses []RawResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp RawResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}
