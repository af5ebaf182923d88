package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"rentdesk-billing/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client",
	fx.Provide(registerClient, NewStorage),
)

func registerClient(c *config.Config) *minio.Client {
	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Fatal("failed to create MinIO client", zap.Error(err))
	}
	exists, errBucketExists := client.BucketExists(context.Background(), c.Minio.BucketName)
	if errBucketExists != nil {
		zap.L().Fatal("failed to check if bucket exists", zap.Error(errBucketExists))
	}
	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.Bool("bucketExists", exists))
	return client
}

// Storage stores uploaded documents (deposit slips) in the configured bucket.
type Storage struct {
	client *minio.Client
	bucket string
}

func NewStorage(client *minio.Client, cfg *config.Config) *Storage {
	return &Storage{
		client: client,
		bucket: cfg.Minio.BucketName,
	}
}

// SaveDepositSlip uploads a proof-of-deposit file and returns its object key.
func (s *Storage) SaveDepositSlip(ctx context.Context, orderCode, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("orders/%s/%d%s", orderCode, time.Now().UnixNano(), path.Ext(filename))

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("failed to upload deposit slip: %w", err)
	}

	return key, nil
}

// RemoveDepositSlip deletes an uploaded slip, used when the order it belongs
// to failed to persist.
func (s *Storage) RemoveDepositSlip(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
