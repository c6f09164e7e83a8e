package model

// Request はJSON-RPC 2.0リクエスト
type Request struct {
	JSONRPC string `json:"jsonrpc"`          // 常に "2.0"
	ID      any    `json:"id"`               // string | number | null
	Method  string `json:"method"`           // メソッド名
	Params  any    `json:"params,omitempty"` // 任意のオブジェクト、省略可
}

// Response はJSON-RPC 2.0レスポンス（成功時）
type Response struct {
	JSONRPC string `json:"jsonrpc"` // 常に "2.0"
	ID      any    `json:"id"`      // リクエストのIDと同一
	Result  any    `json:"result"`  // 結果オブジェクト
}

// ErrorResponse はJSON-RPC 2.0エラーレスポンス
type ErrorResponse struct {
	JSONRPC string   `json:"jsonrpc"` // 常に "2.0"
	ID      any      `json:"id"`      // リクエストのIDと同一（パース失敗時はnull）
	Error   RPCError `json:"error"`   // エラーオブジェクト
}

// RPCError はJSON-RPC 2.0エラーオブジェクト
type RPCError struct {
	Code    int    `json:"code"`           // エラーコード
	Message string `json:"message"`        // エラーメッセージ
	Data    any    `json:"data,omitempty"` // 追加情報、省略可
}

// ErrorData はcapabilityエラーの追加情報
type ErrorData struct {
	Kind  ErrorKind `json:"kind"`
	Field string    `json:"field,omitempty"`
}

// JSON-RPC 2.0 標準エラーコード
const (
	ErrCodeParseError     = -32700 // Invalid JSON
	ErrCodeInvalidRequest = -32600 // Invalid Request
	ErrCodeMethodNotFound = -32601 // Method not found
	ErrCodeInvalidParams  = -32602 // Invalid params
	ErrCodeInternalError  = -32603 // Internal error
)

// MCP 拡張エラーコード（-32000 〜 -32099 はサーバー予約）
const (
	ErrCodeResourceNotFound = -32002 // Resource not found
)

// NewResponse は成功レスポンスを生成
func NewResponse(id any, result any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse はエラーレスポンスを生成
func NewErrorResponse(id any, code int, message string, data any) *ErrorResponse {
	return &ErrorResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// NewParseError はパースエラーレスポンスを生成（IDはnull）
func NewParseError(data any) *ErrorResponse {
	return NewErrorResponse(nil, ErrCodeParseError, "Parse error", data)
}

// NewInvalidRequest は無効リクエストエラーレスポンスを生成
func NewInvalidRequest(id any, data any) *ErrorResponse {
	return NewErrorResponse(id, ErrCodeInvalidRequest, "Invalid Request", data)
}

// NewCapabilityErrorResponse はCapabilityErrorをエラーレスポンスに変換する
func NewCapabilityErrorResponse(id any, err *CapabilityError) *ErrorResponse {
	return NewErrorResponse(id, ErrorCodeFor(err.Kind), err.Message, ErrorData{
		Kind:  err.Kind,
		Field: err.Field,
	})
}

// ErrorCodeFor はerror kindに対応するJSON-RPCエラーコードを返す
func ErrorCodeFor(kind ErrorKind) int {
	switch kind {
	case KindUnknownCapability:
		return ErrCodeMethodNotFound
	case KindInvalidURI, KindMissingField, KindTypeMismatch, KindInvalidArgument:
		return ErrCodeInvalidParams
	case KindNotFound:
		return ErrCodeResourceNotFound
	default:
		return ErrCodeInternalError
	}
}
