package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"askhub/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// BlobStore keeps attachment files and hands back their public URLs.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// MinioBlobStore is a BlobStore backed by any S3-compatible service.
type MinioBlobStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioBlobStore connects and creates the bucket if it is missing.
func NewMinioBlobStore(ctx context.Context, cfg config.BlobConfig) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &MinioBlobStore{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

func (s *MinioBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *MinioBlobStore) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if key == url {
		return fmt.Errorf("url %q is not served by this store", url)
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

const maxUploadSize = 10 << 20

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// UploadService validates attachment uploads and stores them in a BlobStore.
type UploadService struct {
	store  BlobStore
	logger *zap.Logger
	now    func() time.Time
}

func NewUploadService(store BlobStore, logger *zap.Logger) *UploadService {
	return &UploadService{store: store, logger: logger.Named("upload"), now: time.Now}
}

// Upload stores an image under questions/<unix-nano>-<name> and returns its URL.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if s.store == nil {
		return "", Internal("uploads are not configured", nil)
	}
	if size <= 0 || size > maxUploadSize {
		return "", InvalidInput("file must be between 1 byte and 10MB", map[string]string{"file": "max=10MB"})
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", InvalidInput("only images can be uploaded", map[string]string{"file": "image"})
	}

	name := unsafeFileChars.ReplaceAllString(path.Base(filename), "_")
	key := fmt.Sprintf("questions/%d-%s", s.now().UnixNano(), name)
	url, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		s.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		return "", Internal("failed to store file", err)
	}
	return url, nil
}

func (s *UploadService) Remove(ctx context.Context, url string) error {
	if s.store == nil {
		return Internal("uploads are not configured", nil)
	}
	if strings.TrimSpace(url) == "" {
		return InvalidInput("url is required", map[string]string{"url": "required"})
	}
	if err := s.store.Delete(ctx, url); err != nil {
		s.logger.Warn("remove upload failed", zap.String("url", url), zap.Error(err))
		return Internal("failed to remove file", err)
	}
	return nil
}
