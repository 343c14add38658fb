package securestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	t.Parallel()

	stores := map[string]func() Store{
		"file":   func() Store { return NewFileStore(afero.NewMemMapFs(), "/cfg/freshreceipt") },
		"memory": func() Store { return NewMemoryStore() },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := newStore()

			_, err := s.Get(ctx, "freshreceipt.auth.session")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "freshreceipt.auth.session", []byte("v1")))
			require.NoError(t, s.Set(ctx, "freshreceipt.auth.session", []byte("v2")))
			got, err := s.Get(ctx, "freshreceipt.auth.session")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, s.Delete(ctx, "freshreceipt.auth.session"))
			require.NoError(t, s.Delete(ctx, "freshreceipt.auth.session"), "delete is idempotent")
			_, err = s.Get(ctx, "freshreceipt.auth.session")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "freshreceipt")
	s := NewFileStore(afero.NewOsFs(), dir)
	require.NoError(t, s.Set(context.Background(), "freshreceipt.household.selected", []byte("h1")))

	info, err := afero.NewOsFs().Stat(filepath.Join(dir, "freshreceipt.household.selected"))
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	exists, err := afero.Exists(afero.NewOsFs(), filepath.Join(dir, "freshreceipt.household.selected.tmp"))
	require.NoError(t, err)
	assert.False(t, exists, "temporary file is renamed away")
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	t.Parallel()

	s := NewFileStore(afero.NewMemMapFs(), "/cfg")
	for _, key := range []string{"", "../secret", "a/b", ".hidden"} {
		assert.Error(t, s.Set(context.Background(), key, []byte("x")), key)
	}
}

func TestFileStore_ReadOnlyFs(t *testing.T) {
	t.Parallel()

	s := NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/cfg")
	assert.Error(t, s.Set(context.Background(), "k", []byte("x")))
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	v := []byte("abc")
	require.NoError(t, s.Set(context.Background(), "k", v))
	v[0] = 'x'

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
