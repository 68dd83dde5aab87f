package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wicart/storefront/config"
)

// ErrDisabled is returned when no storage backend is configured.
var ErrDisabled = errors.New("object storage is not configured")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Bucket() string
}

// Storage wraps an ObjectStorage backend and builds the public URLs stored on
// products.
type Storage struct {
	backend ObjectStorage
	baseURL string
}

// NewStorage constructs a Storage for backend. When baseURL is set, public URLs
// are baseURL/<bucket>/<key> instead of the backend's own URL.
func NewStorage(backend ObjectStorage, baseURL string) *Storage {
	return &Storage{
		backend: backend,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// New builds the backend selected by cfg.Backend. It returns ErrDisabled when
// no backend is selected.
func New(ctx context.Context, cfg config.StorageConfig, baseURL string) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Backend {
	case "":
		return nil, ErrDisabled
	case "minio":
		backend, err = NewMinioBackend(cfg.Minio)
	case "gcs":
		backend, err = NewGCSBackend(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewStorage(backend, baseURL), nil
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object and returns its public URL.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + s.backend.Bucket() + "/" + key
	}
	return s.backend.PublicURL(key)
}

// KeyFromURL recovers the object key from a URL produced by URL. It reports
// false for URLs that do not point into this storage.
func (s *Storage) KeyFromURL(url string) (string, bool) {
	prefix := strings.TrimSuffix(s.URL(""), "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
