// Package storage keeps receipt images on an afero filesystem: a local
// directory, an S3 bucket or memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3fs "github.com/looplj/afero-s3"
	"github.com/spf13/afero"

	"freshreceipt_backend/internal/config"
)

// Storage backends accepted in config.StorageConfig.Backend.
const (
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Store is a flat object store addressed by slash-separated keys.
type Store struct {
	fs afero.Fs
}

// NewStore wraps fs.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewLocal stores objects under dir, creating it if needed.
func NewLocal(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// NewMemory returns a non-durable store.
func NewMemory() *Store {
	return NewStore(afero.NewMemMapFs())
}

// NewS3 stores objects in cfg.S3Bucket. Static credentials are used when
// configured, otherwise the default AWS credential chain.
func NewS3(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3Access != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			awscredentials.NewStaticCredentialsProvider(cfg.S3Access, cfg.S3Secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewStore(s3fs.NewFsFromClient(cfg.S3Bucket, client)), nil
}

// New selects the backend named in cfg.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocal(cfg.LocalDir)
	case BackendS3:
		return NewS3(ctx, cfg)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

// Save writes r under key and returns the number of bytes written.
func (s *Store) Save(key string, r io.Reader) (int64, error) {
	key, err := cleanKey(key)
	if err != nil {
		return 0, err
	}
	if dir := path.Dir(key); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w, key: %s", err, key)
		}
	}
	f, err := s.fs.OpenFile(key, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w, key: %s", err, key)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(key)
		return 0, fmt.Errorf("failed to write file: %w, key: %s", err, key)
	}
	return n, nil
}

// Open returns a reader for key. The caller closes it.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w, key: %s", err, key)
	}
	return f, nil
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w, key: %s", err, key)
	}
	return nil
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
