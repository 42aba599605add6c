package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"notesync/internal/app/server/config"
)

const r2Suffix = ".r2.cloudflarestorage.com"

// S3Store хранилище поверх S3-совместимого API (Cloudflare R2, MinIO, AWS)
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store создает клиент. Для R2 используется virtual-host стиль и регион auto,
// для остальных эндпоинтов (MinIO) path-style.
func NewS3Store(conf config.Blob) (*S3Store, error) {
	if conf.Endpoint == "" || conf.Bucket == "" {
		return nil, ErrNotConfigured
	}

	endpoint, secure := normalizeEndpoint(conf.Endpoint, conf.UseSSL)

	lookup := minio.BucketLookupPath
	if strings.HasSuffix(endpoint, r2Suffix) {
		lookup = minio.BucketLookupDNS
	}

	// регион задан явно, иначе presign ходит в сеть за location бакета
	region := conf.Region
	if region == "" {
		region = "auto"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Store{client: client, bucket: conf.Bucket}, nil
}

// normalizeEndpoint убирает схему: minio-go принимает host[:port]
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	}
	return strings.TrimSuffix(endpoint, "/"), useSSL
}

func (s *S3Store) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}

func (s *S3Store) SignGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", path, err)
	}
	return u.String(), nil
}

func (s *S3Store) SignPut(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, path, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", path, err)
	}
	return u.String(), nil
}
