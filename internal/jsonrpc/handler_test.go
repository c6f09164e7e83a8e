package jsonrpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/dispatch"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/notes"
	"github.com/brbranch/mcp-notes/internal/service"
	"github.com/brbranch/mcp-notes/internal/store"
	"github.com/brbranch/mcp-notes/internal/toolkit"
)

// === ヘルパー関数 ===

func makeRequest(method string, params any) []byte {
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	b, _ := json.Marshal(req)
	return b
}

func parseResponse(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func parseErrorResponse(t *testing.T, data []byte) *model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	return &resp
}

// errorKind はエラーレスポンスの data.kind を返す
func errorKind(t *testing.T, resp *model.ErrorResponse) string {
	t.Helper()
	data, ok := resp.Error.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected error data object, got %T", resp.Error.Data)
	}
	kind, _ := data["kind"].(string)
	return kind
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	memStore := store.NewMemoryStore()
	if err := memStore.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	r := capability.NewRegistry(nil)
	if err := notes.Register(r, service.NewNoteService(memStore, nil)); err != nil {
		t.Fatalf("failed to register notes: %v", err)
	}
	if err := toolkit.Register(r, toolkit.Options{Greeting: true, Calculator: true}); err != nil {
		t.Fatalf("failed to register toolkit: %v", err)
	}
	return New(dispatch.NewEngine(r))
}

func callTool(t *testing.T, h *Handler, name string, args map[string]any) map[string]any {
	t.Helper()
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})))
	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
	return resp["result"].(map[string]any)
}

func firstText(t *testing.T, result map[string]any) string {
	t.Helper()
	content := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(content))
	}
	item := content[0].(map[string]any)
	if item["type"] != "text" {
		t.Errorf("expected type text, got %v", item["type"])
	}
	return item["text"].(string)
}

// === 1. パース系テスト ===

func TestHandle_ParseError_InvalidJSON(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), []byte(`{invalid json}`)))

	if resp.Error.Code != model.ErrCodeParseError {
		t.Errorf("expected code %d, got %d", model.ErrCodeParseError, resp.Error.Code)
	}
	if resp.ID != nil {
		t.Errorf("expected id null, got %v", resp.ID)
	}
}

func TestHandle_InvalidRequest_WrongVersion(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), []byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`)))

	if resp.Error.Code != model.ErrCodeInvalidRequest {
		t.Errorf("expected code %d, got %d", model.ErrCodeInvalidRequest, resp.Error.Code)
	}
}

func TestHandle_InvalidRequest_NoMethod(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":1}`)))

	if resp.Error.Code != model.ErrCodeInvalidRequest {
		t.Errorf("expected code %d, got %d", model.ErrCodeInvalidRequest, resp.Error.Code)
	}
}

func TestHandle_MethodNotFound(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), makeRequest("memory.search", nil)))

	if resp.Error.Code != model.ErrCodeMethodNotFound {
		t.Errorf("expected code %d, got %d", model.ErrCodeMethodNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Method not found: memory.search" {
		t.Errorf("unexpected message: %s", resp.Error.Message)
	}
	if kind := errorKind(t, resp); kind != string(model.KindUnknownCapability) {
		t.Errorf("expected kind UnknownCapability, got %s", kind)
	}
}

func TestHandle_Notification_NoResponse(t *testing.T) {
	h := newTestHandler(t)
	out := h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))

	if out != nil {
		t.Errorf("expected no response for notification, got %s", string(out))
	}
}

// TestHandle_RequestWithoutID_NoResponse はidなしのリクエストを処理しつつ応答しないことをテスト
func TestHandle_RequestWithoutID_NoResponse(t *testing.T) {
	h := newTestHandler(t)

	out := h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"create_note","arguments":{"name":"Quiet","content":"shh"}}}`))
	if out != nil {
		t.Fatalf("expected no response for request without id, got %s", string(out))
	}

	// 処理自体は行われている
	text := firstText(t, callTool(t, h, "list_notes", nil))
	if text != "Available notes:\n- Quiet" {
		t.Errorf("unexpected text: %q", text)
	}

	// 失敗しても応答しない
	if out := h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"no/such/method"}`)); out != nil {
		t.Errorf("expected no response for failed notification, got %s", string(out))
	}
}

// TestHandle_NullID はid: null のリクエストには応答することをテスト
func TestHandle_NullID(t *testing.T) {
	h := newTestHandler(t)
	out := h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	if out == nil {
		t.Fatal("expected response for id null")
	}
	resp := parseResponse(t, out)
	if resp["error"] != nil {
		t.Errorf("unexpected error: %v", resp["error"])
	}
}

func TestHandle_StringID(t *testing.T) {
	h := newTestHandler(t)
	resp := parseResponse(t, h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":"abc","method":"ping"}`)))

	if resp["id"] != "abc" {
		t.Errorf("expected id abc, got %v", resp["id"])
	}
}

// === 2. MCP ライフサイクル ===

func TestHandle_Initialize_Success(t *testing.T) {
	h := newTestHandler(t)
	req := []byte(`{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "initialize",
		"params": {
			"protocolVersion": "2024-11-05",
			"clientInfo": {"name": "test-client", "version": "1.0.0"},
			"capabilities": {}
		}
	}`)
	resp := parseResponse(t, h.Handle(context.Background(), req))

	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}

	resultMap := resp["result"].(map[string]any)
	if resultMap["protocolVersion"] != "2024-11-05" {
		t.Errorf("expected protocolVersion '2024-11-05', got %v", resultMap["protocolVersion"])
	}

	serverInfo := resultMap["serverInfo"].(map[string]any)
	if serverInfo["name"] != "mcp-notes" {
		t.Errorf("expected serverInfo.name 'mcp-notes', got %v", serverInfo["name"])
	}

	capabilities := resultMap["capabilities"].(map[string]any)
	if capabilities["tools"] == nil {
		t.Error("expected capabilities.tools to exist")
	}
	if capabilities["resources"] == nil {
		t.Error("expected capabilities.resources to exist")
	}
}

func TestHandle_Initialize_CustomServerInfo(t *testing.T) {
	h := New(dispatch.NewEngine(capability.NewRegistry(nil)), WithServerInfo(model.ServerInfo{Name: "custom", Version: "9.9.9"}))
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("initialize", map[string]any{})))

	serverInfo := resp["result"].(map[string]any)["serverInfo"].(map[string]any)
	if serverInfo["name"] != "custom" || serverInfo["version"] != "9.9.9" {
		t.Errorf("unexpected serverInfo: %v", serverInfo)
	}
}

func TestHandle_Ping(t *testing.T) {
	h := newTestHandler(t)
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("ping", nil)))

	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
	if result, ok := resp["result"].(map[string]any); !ok || len(result) != 0 {
		t.Errorf("expected empty result object, got %v", resp["result"])
	}
}

// === 3. tools ===

func TestHandle_ToolsList(t *testing.T) {
	h := newTestHandler(t)
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("tools/list", nil)))

	tools := resp["result"].(map[string]any)["tools"].([]any)
	expected := []string{"create_note", "delete_note", "list_notes", "greet", "add", "subtract", "multiply", "divide"}
	if len(tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(tools))
	}

	for i, name := range expected {
		tool := tools[i].(map[string]any)
		if tool["name"] != name {
			t.Errorf("tools[%d]: expected %s, got %v", i, name, tool["name"])
		}
		if tool["description"] == "" {
			t.Errorf("tool %s has empty description", name)
		}
		schema := tool["inputSchema"].(map[string]any)
		if schema["type"] != "object" {
			t.Errorf("tool %s: expected inputSchema.type object, got %v", name, schema["type"])
		}
	}

	createSchema := tools[0].(map[string]any)["inputSchema"].(map[string]any)
	required := createSchema["required"].([]any)
	if len(required) != 2 || required[0] != "name" || required[1] != "content" {
		t.Errorf("unexpected create_note required: %v", required)
	}
}

func TestHandle_ToolsCall_Notes(t *testing.T) {
	h := newTestHandler(t)

	text := firstText(t, callTool(t, h, "create_note", map[string]any{"name": "Shopping List!", "content": "milk, eggs"}))
	if text != "Note 'Shopping List' created successfully!" {
		t.Errorf("unexpected text: %s", text)
	}

	text = firstText(t, callTool(t, h, "list_notes", nil))
	if text != "Available notes:\n- Shopping List" {
		t.Errorf("unexpected text: %q", text)
	}

	text = firstText(t, callTool(t, h, "delete_note", map[string]any{"name": "Shopping List"}))
	if text != "Note 'Shopping List' deleted successfully!" {
		t.Errorf("unexpected text: %s", text)
	}

	result := callTool(t, h, "delete_note", map[string]any{"name": "Shopping List"})
	if result["isError"] != nil {
		t.Errorf("expected deletion of missing note to succeed, got isError=%v", result["isError"])
	}
	if text := firstText(t, result); text != "Note 'Shopping List' not found." {
		t.Errorf("unexpected text: %s", text)
	}
}

func TestHandle_ToolsCall_UnknownTool(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), makeRequest("tools/call", map[string]any{
		"name": "launch_rocket",
	})))

	if resp.Error.Code != model.ErrCodeMethodNotFound {
		t.Errorf("expected code %d, got %d", model.ErrCodeMethodNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Unknown tool: launch_rocket" {
		t.Errorf("unexpected message: %s", resp.Error.Message)
	}
}

func TestHandle_ToolsCall_MissingField(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), makeRequest("tools/call", map[string]any{
		"name":      "create_note",
		"arguments": map[string]any{"name": "x"},
	})))

	if resp.Error.Code != model.ErrCodeInvalidParams {
		t.Errorf("expected code %d, got %d", model.ErrCodeInvalidParams, resp.Error.Code)
	}
	data := resp.Error.Data.(map[string]any)
	if data["kind"] != "MissingField" || data["field"] != "content" {
		t.Errorf("unexpected error data: %v", data)
	}
}

func TestHandle_ToolsCall_InvalidParams(t *testing.T) {
	h := newTestHandler(t)
	resp := parseErrorResponse(t, h.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":5}}`)))

	if resp.Error.Code != model.ErrCodeInvalidParams {
		t.Errorf("expected code %d, got %d", model.ErrCodeInvalidParams, resp.Error.Code)
	}
	if kind := errorKind(t, resp); kind != string(model.KindInvalidArgument) {
		t.Errorf("expected kind InvalidArgument, got %s", kind)
	}
}

func TestHandle_ToolsCall_DivideByZero(t *testing.T) {
	h := newTestHandler(t)
	result := callTool(t, h, "divide", map[string]any{"a": 1, "b": 0})

	if result["isError"] != true {
		t.Errorf("expected isError true, got %v", result["isError"])
	}
	if text := firstText(t, result); text != "Error: Cannot divide by zero" {
		t.Errorf("unexpected text: %s", text)
	}
}

// === 4. resources ===

func TestHandle_Resources(t *testing.T) {
	h := newTestHandler(t)
	callTool(t, h, "create_note", map[string]any{"name": "todo", "content": "buy milk"})

	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("resources/list", nil)))
	resources := resp["result"].(map[string]any)["resources"].([]any)
	if len(resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(resources))
	}
	res := resources[0].(map[string]any)
	if res["uri"] != "note:///todo" || res["name"] != "Note: todo" || res["mimeType"] != "text/plain" {
		t.Errorf("unexpected resource: %v", res)
	}

	resp = parseResponse(t, h.Handle(context.Background(), makeRequest("resources/read", map[string]any{"uri": "note:///todo"})))
	contents := resp["result"].(map[string]any)["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	c := contents[0].(map[string]any)
	if c["text"] != "buy milk" || c["uri"] != "note:///todo" || c["mimeType"] != "text/plain" {
		t.Errorf("unexpected contents: %v", c)
	}
}

func TestHandle_Resources_EmptyList(t *testing.T) {
	h := newTestHandler(t)
	out := h.Handle(context.Background(), makeRequest("resources/list", nil))

	resp := parseResponse(t, out)
	resources, ok := resp["result"].(map[string]any)["resources"].([]any)
	if !ok || len(resources) != 0 {
		t.Errorf("expected empty resources array, got %s", string(out))
	}
}

func TestHandle_ResourcesRead_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		uri  string
		code int
		kind model.ErrorKind
	}{
		{"not found", "note:///ghost", model.ErrCodeResourceNotFound, model.KindNotFound},
		{"unknown scheme", "http://example.com", model.ErrCodeInvalidParams, model.KindInvalidURI},
		{"empty name", "note:///", model.ErrCodeInvalidParams, model.KindInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := parseErrorResponse(t, h.Handle(context.Background(), makeRequest("resources/read", map[string]any{"uri": tt.uri})))
			if resp.Error.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Error.Code)
			}
			if kind := errorKind(t, resp); kind != string(tt.kind) {
				t.Errorf("expected kind %s, got %s", tt.kind, kind)
			}
		})
	}
}

func TestHandle_ResourceTemplatesList(t *testing.T) {
	h := newTestHandler(t)
	resp := parseResponse(t, h.Handle(context.Background(), makeRequest("resources/templates/list", nil)))

	templates := resp["result"].(map[string]any)["resourceTemplates"].([]any)
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
	if uri := templates[0].(map[string]any)["uriTemplate"]; uri != "note:///{name}" {
		t.Errorf("unexpected uriTemplate: %v", uri)
	}
}
