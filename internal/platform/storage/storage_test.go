package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshreceipt_backend/internal/config"
)

func TestStore_SaveOpenDelete(t *testing.T) {
	t.Parallel()

	s := NewMemory()

	n, err := s.Save("households/h1/receipt.jpg", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, len("image-bytes"), n)

	rc, err := s.Open("households/h1/receipt.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, s.Delete("households/h1/receipt.jpg"))
	_, err = s.Open("households/h1/receipt.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete("households/h1/receipt.jpg"), "deleting twice is fine")
}

func TestStore_Overwrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := NewStore(fs)
	_, err := s.Save("a.png", strings.NewReader("longer content"))
	require.NoError(t, err)
	_, err = s.Save("a.png", strings.NewReader("short"))
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "a.png")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestStore_SaveFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, err := NewStore(fs).Save("x/y.jpg", failingReader{})
	require.Error(t, err)

	exists, _ := afero.Exists(fs, "x/y.jpg")
	assert.False(t, exists)
}

func TestCleanKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "a/b.jpg", want: "a/b.jpg"},
		{key: "/a/b.jpg", want: "a/b.jpg"},
		{key: "", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "a/../../b", wantErr: true},
		{key: "a/./b", wantErr: true},
		{key: `a\b`, wantErr: true},
		{key: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			got, err := cleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLocal(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "receipts")
	s, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = s.Save("h/r.webp", strings.NewReader("webp"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "h", "r.webp"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), config.StorageConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestNewS3_BuildsClient(t *testing.T) {
	t.Parallel()

	s, err := NewS3(context.Background(), config.StorageConfig{
		Backend:    BackendS3,
		S3Bucket:   "receipts",
		S3Region:   "us-east-1",
		S3Endpoint: "http://127.0.0.1:9000",
		S3Access:   "minio",
		S3Secret:   "minio123",
	})
	require.NoError(t, err)
	assert.NotNil(t, s.fs)
}
