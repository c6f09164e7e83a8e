// Package stdio implements the newline-delimited JSON-RPC transport over
// standard input and output.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// MaxBufferSize はScannerの最大バッファサイズ（1MB）
const MaxBufferSize = 1024 * 1024

// Handler はJSON-RPCリクエストを処理するインターフェース
// 応答不要（通知）の場合は nil を返す
type Handler interface {
	Handle(ctx context.Context, requestBytes []byte) []byte
}

// Server はstdio JSON-RPCサーバー
type Server struct {
	handler Handler
	reader  io.Reader
	writer  io.Writer
	logger  *zap.Logger
}

// Option はサーバーオプション
type Option func(*Server)

// WithReader はreaderを設定（テスト用）
func WithReader(r io.Reader) Option {
	return func(s *Server) {
		s.reader = r
	}
}

// WithWriter はwriterを設定（テスト用）
func WithWriter(w io.Writer) Option {
	return func(s *Server) {
		s.writer = w
	}
}

// WithLogger はロガーを設定
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New は新しいServerを生成
func New(handler Handler, opts ...Option) *Server {
	s := &Server{
		handler: handler,
		reader:  os.Stdin,
		writer:  os.Stdout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("transport", "stdio"))
	return s
}

// scanResult は読み取り1回分の結果
type scanResult struct {
	line []byte
	err  error
	eof  bool
}

// Run はサーバーを起動し、入力終了かcontextキャンセルまで実行
// 1行読んで処理し、応答を1行書いてから次の行を読む
func (s *Server) Run(ctx context.Context) error {
	lines := make(chan scanResult)
	next := make(chan struct{})
	go s.scan(ctx, lines, next)
	defer close(next)

	s.logger.Info("stdio transport started")

	for {
		var res scanResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res = <-lines:
		}

		if res.err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read request: %w", res.err)
		}
		if res.eof {
			s.logger.Info("stdin closed")
			return nil
		}

		if err := s.serveLine(ctx, res.line); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case next <- struct{}{}:
		}
	}
}

// scan はreaderから1行ずつ読み、処理完了の合図を待ってから次を読む
func (s *Server) scan(ctx context.Context, lines chan<- scanResult, next <-chan struct{}) {
	scanner := bufio.NewScanner(s.reader)
	// バッファサイズを1MBに拡張
	scanner.Buffer(make([]byte, 0, 64*1024), MaxBufferSize)

	for {
		var res scanResult
		if scanner.Scan() {
			res.line = append([]byte(nil), scanner.Bytes()...)
		} else if err := scanner.Err(); err != nil {
			res.err = err
		} else {
			res.eof = true
		}

		select {
		case <-ctx.Done():
			return
		case lines <- res:
		}
		if res.err != nil || res.eof {
			return
		}

		if _, ok := <-next; !ok {
			return
		}
	}
}

// serveLine は1行分のリクエストを処理して応答を書き込む
func (s *Server) serveLine(ctx context.Context, line []byte) error {
	// 空行はスキップ
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	response := s.handler.Handle(ctx, line)
	if response == nil {
		return nil
	}

	// レスポンスを書き込み（1行 + 改行）
	if _, err := s.writer.Write(append(response, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
