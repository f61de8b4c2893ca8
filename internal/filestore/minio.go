package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bookapi/internal/config"
)

// s3Store implements FileStore against an S3-compatible backend
// (MinIO, AWS S3, etc.). It applies the same upload rules and name
// generation as the disk backend; object keys never contain path
// separators, so containment is structural here.
type s3Store struct {
	client *minio.Client
	bucket string
	rules
}

// NewS3 creates an S3-backed FileStore. It validates connectivity and
// ensures the bucket exists (creates it if missing).
func NewS3(cfg config.MinIOConfig, up config.UploadConfig) (FileStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &s3Store{
		client: cli,
		bucket: cfg.Bucket,
		rules:  rules{maxSize: up.MaxFileSize, allowedTypes: up.AllowedTypes},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return s, nil
}

func (s *s3Store) Validate(u *Upload) error {
	return s.validate(u)
}

func (s *s3Store) Save(ctx context.Context, u *Upload) (string, error) {
	if u == nil {
		return "", ErrEmptyFile
	}
	name := generateName(u.Filename)
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(u.Data), int64(len(u.Data)), minio.PutObjectOptions{
		ContentType: u.ContentType,
		UserMetadata: map[string]string{
			"original-filename": u.Filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return name, nil
}

func (s *s3Store) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject is lazy; Stat forces the lookup so a missing key is
	// reported here rather than on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (s *s3Store) Delete(ctx context.Context, filename string) error {
	// RemoveObject on a missing key is a no-op, matching the disk
	// backend's idempotent delete.
	return s.client.RemoveObject(ctx, s.bucket, filename, minio.RemoveObjectOptions{})
}
