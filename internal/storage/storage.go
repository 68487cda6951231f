package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ShameelMohamed/FASHN8/config"
)

// garmentCacheControl is sent with every crop. A crop key is reused when the
// same user saves the same label and colour again, so the TTL stays short.
const garmentCacheControl = "public, max-age=3600"

// Object is a single media upload.
type Object struct {
	Key          string
	Data         []byte
	ContentType  string
	CacheControl string
}

// ObjectStorage is implemented by each media backend.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj Object) error
	Bucket() string
	// URL returns the public URL the backend serves key from.
	URL(key string) string
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend       ObjectStorage
	publicBaseURL string
}

// NewStorage constructs a Storage wrapper for the provided backend. A
// non-empty publicBaseURL replaces the backend's own URL scheme.
func NewStorage(backend ObjectStorage, publicBaseURL string) *Storage {
	return &Storage{
		backend:       backend,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload stores data under key and returns its public URL.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := Object{
		Key:          key,
		Data:         data,
		ContentType:  contentType,
		CacheControl: garmentCacheControl,
	}
	if err := s.backend.Put(ctx, obj); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + escapeKey(key)
	}
	return s.backend.URL(key)
}

// GarmentKey builds the object key of a garment crop:
// {folder}/{username}_{label}_{hex}.png, with the leading '#' of the color dropped.
func GarmentKey(folder, username, label, color string) string {
	name := fmt.Sprintf("%s_%s_%s.png", username, label, strings.TrimPrefix(color, "#"))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func objectURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(bucket) + "/" + escapeKey(key)
}

// Open builds the backend selected by cfg.Media.Backend and makes sure its
// bucket exists.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Media.Backend {
	case config.StorageGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	case config.StorageMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.StorageS3:
		backend, err = NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Media.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Media.Backend, err)
	}

	s := NewStorage(backend, cfg.Media.PublicBaseURL)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", s.Bucket(), err)
	}
	return s, nil
}
