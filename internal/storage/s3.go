package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries everything needed to reach an S3-compatible object store.
type S3Config struct {
	Endpoint      string // host[:port]; empty means AWS S3
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string // overrides synthesized object URLs when set
}

// S3Backend stores files in an S3-compatible bucket via the MinIO client.
type S3Backend struct {
	client *minio.Client
	cfg    S3Config
}

// NewS3 builds the S3 backend. A bucket name and static credentials are
// required; construction failure degrades the registry instead of aborting
// startup.
func NewS3(cfg S3Config) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, &ConfigError{Provider: ProviderS3, Reason: "bucket name is required"}
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, &ConfigError{Provider: ProviderS3, Reason: "missing credentials"}
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
		cfg.UseSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, &ConfigError{Provider: ProviderS3, Reason: fmt.Sprintf("failed to create client: %v", err)}
	}

	return &S3Backend{client: client, cfg: cfg}, nil
}

func (s *S3Backend) Name() string {
	return ProviderS3
}

func (s *S3Backend) Save(ctx context.Context, folder, filename string, content []byte, contentType string) (string, error) {
	objectName := path.Join(folder, filename)

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &WriteError{Provider: ProviderS3, Err: err}
	}

	return objectName, nil
}

// FileURL prefers the configured public base URL, else synthesizes the
// virtual-hosted-style URL. The default region omits the region segment.
func (s *S3Backend) FileURL(storagePath string) string {
	key := strings.TrimLeft(storagePath, "/")
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
	}
	if s.cfg.Region == "" || s.cfg.Region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// LocalPath never resolves for object storage.
func (s *S3Backend) LocalPath(_ string) (string, bool) {
	return "", false
}

func (s *S3Backend) DownloadURL(ctx context.Context, storagePath string, expiry time.Duration) (string, bool) {
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, storagePath, expiry, url.Values{})
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func (s *S3Backend) Remove(ctx context.Context, storagePath string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, storagePath, minio.RemoveObjectOptions{})
}

// RemoveFolder deletes every object under prefix, draining the removal
// channel for the first error.
func (s *S3Backend) RemoveFolder(ctx context.Context, prefix string) error {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects := s.client.ListObjects(ctx, s.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	errCh := s.client.RemoveObjects(ctx, s.cfg.Bucket, objects, minio.RemoveObjectsOptions{})
	for removeErr := range errCh {
		if removeErr.Err != nil {
			return fmt.Errorf("failed to remove object %s: %w", removeErr.ObjectName, removeErr.Err)
		}
	}
	return nil
}
