// Package store provides note content storage interfaces and implementations.
package store

import (
	"context"
	"errors"
)

// Store はノート本文の永続化インターフェース
// キーはサニタイズ済みのノート名、値は本文テキスト
type Store interface {
	// List は保存されている全ノート名を返す（順序は不定）
	List(ctx context.Context) ([]string, error)
	// Read はノート本文を返す。存在しない場合は ErrNotFound
	Read(ctx context.Context, name string) (string, error)
	// Write はノートを作成または上書きする
	Write(ctx context.Context, name, content string) error
	// Delete はノートを削除し、削除前に存在していたかを返す
	Delete(ctx context.Context, name string) (bool, error)

	// 初期化・終了
	Initialize(ctx context.Context) error
	Close() error
}

// エラー定義
var (
	ErrNotFound       = errors.New("note not found")
	ErrInvalidName    = errors.New("invalid note name")
	ErrNotInitialized = errors.New("store not initialized")
)
