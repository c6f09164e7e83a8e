package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultFileSuffix はノートファイルの拡張子
const DefaultFileSuffix = ".txt"

// FileStore はディレクトリ内の1ノート1ファイルで保存するStore実装
// ファイル名 = <name><suffix>、中身 = 本文そのまま
type FileStore struct {
	mu     sync.Mutex
	root   string
	suffix string
}

// FileOption はFileStoreのオプション
type FileOption func(*FileStore)

// WithSuffix はファイル拡張子を変更する
func WithSuffix(suffix string) FileOption {
	return func(s *FileStore) {
		s.suffix = suffix
	}
}

// NewFileStore はFileStoreを作成し、ルートディレクトリを用意する
func NewFileStore(root string, opts ...FileOption) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("notes directory is required")
	}
	s := &FileStore{
		root:   root,
		suffix: DefaultFileSuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory %s: %w", root, err)
	}
	return s, nil
}

// Initialize はルートディレクトリの存在を確認する
func (s *FileStore) Initialize(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("failed to stat notes directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("notes path %s is not a directory", s.root)
	}
	return nil
}

// Close は何もしない（ファイルは都度開閉）
func (s *FileStore) Close() error {
	return nil
}

// List はルート直下の suffix を持つ通常ファイルの stem を返す
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		fileName := e.Name()
		if !strings.HasSuffix(fileName, s.suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(fileName, s.suffix))
	}
	return names, nil
}

// Read はノート本文を読み込む
func (s *FileStore) Read(ctx context.Context, name string) (string, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read note %q: %w", name, err)
	}
	return string(data), nil
}

// Write はノートを書き込む
// 一時ファイルに書いてからリネームする
func (s *FileStore) Write(ctx context.Context, name, content string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmpFile := filepath.Join(s.root, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write temp note file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile) // クリーンアップ
		return fmt.Errorf("failed to rename note file: %w", err)
	}
	return nil
}

// Delete はノートファイルを削除する
// 存在しない場合は (false, nil)
func (s *FileStore) Delete(ctx context.Context, name string) (bool, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete note %q: %w", name, err)
	}
	return true, nil
}

// pathFor はノート名からファイルパスを組み立てる
// ルート外を指す名前は ErrInvalidName
func (s *FileStore) pathFor(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, name+s.suffix), nil
}
