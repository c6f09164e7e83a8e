package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// backends は全Store実装に同じ契約テストを流すためのファクトリ
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"), zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("write then read", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				require.NoError(t, s.Write(ctx, "Shopping List", "milk, eggs"))
				got, err := s.Read(ctx, "Shopping List")
				require.NoError(t, err)
				assert.Equal(t, "milk, eggs", got)
			})

			t.Run("overwrite", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				require.NoError(t, s.Write(ctx, "todo", "first"))
				require.NoError(t, s.Write(ctx, "todo", "second"))
				got, err := s.Read(ctx, "todo")
				require.NoError(t, err)
				assert.Equal(t, "second", got)

				names, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"todo"}, names)
			})

			t.Run("read missing", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				_, err := s.Read(ctx, "nope")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))
				require.NoError(t, s.Write(ctx, "gone", "x"))

				existed, err := s.Delete(ctx, "gone")
				require.NoError(t, err)
				assert.True(t, existed)

				existed, err = s.Delete(ctx, "gone")
				require.NoError(t, err)
				assert.False(t, existed)

				_, err = s.Read(ctx, "gone")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("list", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				names, err := s.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, names)

				for _, n := range []string{"b", "a", "c"} {
					require.NoError(t, s.Write(ctx, n, "content "+n))
				}
				names, err = s.List(ctx)
				require.NoError(t, err)
				sort.Strings(names)
				assert.Equal(t, []string{"a", "b", "c"}, names)
			})

			t.Run("empty content", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				require.NoError(t, s.Write(ctx, "blank", ""))
				got, err := s.Read(ctx, "blank")
				require.NoError(t, err)
				assert.Equal(t, "", got)
			})

			t.Run("empty name rejected", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Initialize(ctx))

				err := s.Write(ctx, "", "x")
				assert.True(t, errors.Is(err, ErrInvalidName), "got %v", err)
			})
		})
	}
}

func TestMemoryStore_NotInitialized(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, s.Write(ctx, "a", "b"), ErrNotInitialized)
}

func TestSQLiteStore_ClosedStoreRejectsOperations(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"), nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Close())

	_, err = s.Read(ctx, "a")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "notes.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s1.Initialize(ctx))
	require.NoError(t, s1.Write(ctx, "kept", "still here"))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(dbPath, zap.NewNop())
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Initialize(ctx))

	got, err := s2.Read(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "still here", got)
}
