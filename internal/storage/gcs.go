package storage

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ShameelMohamed/FASHN8/config"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSClient stores garment crops in a Google Cloud Storage bucket.
type GCSClient struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCSClient constructs a GCS client from config.
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:    client,
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket creates the bucket in the configured project when missing.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("gcs project id is required to create bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Put writes obj in a single request.
func (g *GCSClient) Put(ctx context.Context, obj Object) error {
	writer := g.client.Bucket(g.bucket).Object(obj.Key).NewWriter(ctx)
	writer.ContentType = obj.ContentType
	writer.CacheControl = obj.CacheControl
	writer.ChunkSize = 0
	if _, err := writer.Write(obj.Data); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Bucket returns the configured bucket name.
func (g *GCSClient) Bucket() string {
	return g.bucket
}

// URL returns the public storage.googleapis.com URL of key.
func (g *GCSClient) URL(key string) string {
	return objectURL(gcsPublicHost, g.bucket, key)
}
