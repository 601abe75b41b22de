package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Sink stores a rendered document under name, replacing any previous
// version, and returns where it was written.
type Sink interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}

// LocalSink writes documents into a directory.
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &LocalSink{dir: dir}, nil
}

func (s *LocalSink) Put(_ context.Context, name, _ string, body []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o640); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// MinioConfig locates an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioSink uploads documents to a MinIO or S3 bucket.
type MinioSink struct {
	client *minio.Client
	bucket string
}

// NewMinioSink connects to the bucket, creating it when missing.
func NewMinioSink(ctx context.Context, cfg MinioConfig) (*MinioSink, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
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
	return &MinioSink{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioSink) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", s.bucket, name, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, name), nil
}

// MemorySink keeps documents in memory.
type MemorySink struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[string][]byte)}
}

func (s *MemorySink) Put(_ context.Context, name, _ string, body []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = append([]byte(nil), body...)
	return "memory://" + name, nil
}

// Get returns a stored document.
func (s *MemorySink) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.docs[name]
	return string(body), ok
}
