package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/store"
)

// noteService はNoteServiceの実装
type noteService struct {
	store  store.Store
	logger *zap.Logger
}

// NewNoteService はNoteServiceの新しいインスタンスを作成
func NewNoteService(s store.Store, logger *zap.Logger) NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &noteService{
		store:  s,
		logger: logger.With(zap.String("component", "note_service")),
	}
}

// sanitize は名前をサニタイズし、空になった場合はエラー
func sanitize(name string) (string, error) {
	clean := model.SanitizeName(name)
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrNameRequired, name)
	}
	return clean, nil
}

// Create はノートを作成または上書きする
func (s *noteService) Create(ctx context.Context, name, content string) (*CreateNoteResponse, error) {
	clean, err := sanitize(name)
	if err != nil {
		return nil, err
	}

	if err := s.store.Write(ctx, clean, content); err != nil {
		return nil, fmt.Errorf("failed to write note: %w", err)
	}

	s.logger.Debug("note written", zap.String("name", clean), zap.Int("bytes", len(content)))
	return &CreateNoteResponse{Name: clean}, nil
}

// Delete はノートを削除する
// 存在しない場合もエラーにせず Existed=false を返す
func (s *noteService) Delete(ctx context.Context, name string) (*DeleteNoteResponse, error) {
	clean, err := sanitize(name)
	if err != nil {
		return nil, err
	}

	existed, err := s.store.Delete(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}

	s.logger.Debug("note deleted", zap.String("name", clean), zap.Bool("existed", existed))
	return &DeleteNoteResponse{Name: clean, Existed: existed}, nil
}

// List はノート名を辞書順で返す
// サニタイズ済みの形でない名前（外部から置かれた my.draft.txt など）は
// 読み書き・削除で指定できないため一覧に含めない
func (s *noteService) List(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	valid := names[:0]
	for _, name := range names {
		if name == "" || model.SanitizeName(name) != name {
			s.logger.Debug("skipping unaddressable note", zap.String("name", name))
			continue
		}
		valid = append(valid, name)
	}

	sort.Strings(valid)
	return valid, nil
}

// Read はノートを読み込む
func (s *noteService) Read(ctx context.Context, name string) (*model.Note, error) {
	clean, err := sanitize(name)
	if err != nil {
		return nil, err
	}

	content, err := s.store.Read(ctx, clean)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, clean)
		}
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	return &model.Note{Name: clean, Content: content}, nil
}
