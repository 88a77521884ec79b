// Package storage provides object storage for generated artifacts such as
// meeting briefings, backed by MinIO.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"prospect_backend/platform/config"
)

// PresignedURLTTL is the default expiration time for presigned URLs.
const PresignedURLTTL = 15 * time.Minute

// MinIOService stores and serves artifacts from a MinIO bucket.
type MinIOService struct {
	client *minio.Client
}

// NewMinIOService creates a new MinIO storage service. Returns nil when
// MinIO is not configured; callers treat a nil service as storage disabled.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{client: client}, nil
}

// EnsureBucketExists creates the bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	if s == nil {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	return nil
}

// Upload stores an object and returns its key.
func (s *MinIOService) Upload(ctx context.Context, bucket, fileKey, contentType string, body string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	reader := strings.NewReader(body)
	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// GenerateDownloadURL creates a presigned URL for reading an object.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return presignedURL.String(), nil
}

// Download reads an object from storage. The caller closes the reader.
func (s *MinIOService) Download(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("object storage not configured")
	}

	obj, err := s.client.GetObject(ctx, bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", fileKey, err)
	}
	return obj, nil
}
