package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/arzan03/usermanager/internal/config"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore keeps profile pictures in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects and creates the bucket if it does not exist yet.
func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Created bucket", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("Connected to MinIO", zap.String("endpoint", cfg.Endpoint))
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Save uploads data as object name in the bucket.
func (s *MinioStore) Save(ctx context.Context, name, contentType string, data []byte) (*models.StoredFile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	return &models.StoredFile{
		Name:        name,
		URL:         s.client.EndpointURL().JoinPath(s.bucket, name).String(),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	}, nil
}

// Remove deletes object name from the bucket.
func (s *MinioStore) Remove(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
}
