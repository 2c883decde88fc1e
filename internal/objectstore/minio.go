package objectstore

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"teamzones/internal/config"
)

// MinioClient implements Client against a MinIO or S3-compatible endpoint.
type MinioClient struct {
	client *minio.Client
}

// NewMinioClient connects to the configured endpoint and ensures the target
// bucket exists.
func NewMinioClient(ctx context.Context, cfg config.ObjectStore) (*MinioClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &MinioClient{client: client}, nil
}

// Download fetches an object into a local file.
func (m *MinioClient) Download(ctx context.Context, bucket, objectPath, destFile string) error {
	err := m.client.FGetObject(ctx, bucket, objectPath, destFile, minio.GetObjectOptions{})
	return wrapErr("download", bucket, objectPath, err)
}

// Upload stores a local file at the given object path.
func (m *MinioClient) Upload(ctx context.Context, bucket, objectPath, srcFile, contentType string) error {
	_, err := m.client.FPutObject(ctx, bucket, objectPath, srcFile, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return wrapErr("upload", bucket, objectPath, err)
}

// SignedURL returns a presigned read URL for an object.
func (m *MinioClient) SignedURL(ctx context.Context, bucket, objectPath string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, bucket, objectPath, expiry, nil)
	if err != nil {
		return "", wrapErr("sign url", bucket, objectPath, err)
	}
	return url.String(), nil
}
