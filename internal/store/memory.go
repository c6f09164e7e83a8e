package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore はインメモリのStore実装（テスト・一時利用向け）
type MemoryStore struct {
	mu          sync.RWMutex
	notes       map[string]string
	initialized bool
}

// NewMemoryStore はMemoryStoreを作成する
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notes: make(map[string]string),
	}
}

// Initialize はストアを初期化する
func (s *MemoryStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

// Close はストアをクローズする
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	return nil
}

// List は全ノート名を返す
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	names := make([]string, 0, len(s.notes))
	for name := range s.notes {
		names = append(names, name)
	}
	return names, nil
}

// Read はノート本文を返す
func (s *MemoryStore) Read(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return "", ErrNotInitialized
	}

	content, ok := s.notes[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return content, nil
}

// Write はノートを作成または上書きする
func (s *MemoryStore) Write(ctx context.Context, name, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.notes[name] = content
	return nil
}

// Delete はノートを削除する
func (s *MemoryStore) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return false, ErrNotInitialized
	}

	if _, ok := s.notes[name]; !ok {
		return false, nil
	}
	delete(s.notes, name)
	return true, nil
}
