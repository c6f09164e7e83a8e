// Package service implements note operations on top of a store.Store.
package service

import (
	"context"
	"errors"

	"github.com/brbranch/mcp-notes/internal/model"
)

// NoteService はノートの作成・削除・一覧・読み込みを提供
// 名前は全操作でサニタイズしてから扱う
type NoteService interface {
	Create(ctx context.Context, name, content string) (*CreateNoteResponse, error)
	Delete(ctx context.Context, name string) (*DeleteNoteResponse, error)
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (*model.Note, error)
}

// CreateNoteResponse は Create の結果
type CreateNoteResponse struct {
	Name string // サニタイズ後の名前
}

// DeleteNoteResponse は Delete の結果
type DeleteNoteResponse struct {
	Name    string // サニタイズ後の名前
	Existed bool   // 削除前に存在していたか
}

// エラー定義
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrNameRequired = errors.New("name is empty after sanitization")
)
