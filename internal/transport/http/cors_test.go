package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsRequest(method, origin string) *http.Request {
	var req *http.Request
	if method == http.MethodOptions {
		req = httptest.NewRequest(method, "/rpc", nil)
		req.Header.Set("Access-Control-Request-Method", "POST")
	} else {
		req = httptest.NewRequest(method, "/rpc", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
		req.Header.Set("Content-Type", "application/json")
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

// TestCORS はCORSヘッダーの付与条件をテスト
func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantAllowed string
	}{
		{"disabled", nil, http.MethodPost, "http://example.com", ""},
		{"allowed origin", []string{"http://example.com"}, http.MethodPost, "http://example.com", "http://example.com"},
		{"unallowed origin", []string{"http://example.com"}, http.MethodPost, "http://evil.com", ""},
		{"second of many", []string{"http://example.com", "http://localhost:3000"}, http.MethodPost, "http://localhost:3000", "http://localhost:3000"},
		{"no origin header", []string{"http://example.com"}, http.MethodPost, "", ""},
		{"preflight", []string{"http://example.com"}, http.MethodOptions, "http://example.com", "http://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newMockHandler()
			handler.SetResponse("ping", map[string]any{})
			server := New(handler, Config{Addr: "127.0.0.1:0", CORSOrigins: tt.origins})

			w := httptest.NewRecorder()
			server.handleRPC(w, corsRequest(tt.method, tt.origin))

			if w.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.wantAllowed, got)
			}
			if tt.wantAllowed == "" {
				return
			}
			if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
				t.Errorf("expected methods POST, OPTIONS, got %q", got)
			}
			if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
				t.Errorf("expected headers Content-Type, got %q", got)
			}
			if got := w.Header().Get("Vary"); got != "Origin" {
				t.Errorf("expected Vary: Origin, got %q", got)
			}
		})
	}
}

// TestCORS_PreflightEmptyBody はPreflightの応答本文が空であることをテスト
func TestCORS_PreflightEmptyBody(t *testing.T) {
	server := New(newMockHandler(), Config{CORSOrigins: []string{"http://example.com"}})

	w := httptest.NewRecorder()
	server.handleRPC(w, corsRequest(http.MethodOptions, "http://example.com"))

	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}
