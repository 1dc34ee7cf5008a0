// Package backup mirrors case snapshots to an S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNoSnapshot reports that the bucket holds no object under the name.
var ErrNoSnapshot = errors.New("snapshot not found in bucket")

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// History keeps a timestamped copy next to the latest snapshot.
	History bool
}

type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioSink implements store.SnapshotSink.
type MinioSink struct {
	client  objectStore
	bucket  string
	history bool
	now     func() time.Time
	fetch   func(ctx context.Context, name string) ([]byte, error)
}

func NewMinioSink(ctx context.Context, cfg Config) (*MinioSink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("snapshot bucket required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	sink := newSink(client, cfg.Bucket, cfg.History)
	sink.fetch = func(ctx context.Context, name string) ([]byte, error) {
		obj, err := client.GetObject(ctx, cfg.Bucket, name, minio.GetObjectOptions{})
		if err != nil {
			return nil, err
		}
		defer obj.Close()
		data, err := io.ReadAll(obj)
		if err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				return nil, ErrNoSnapshot
			}
			return nil, err
		}
		return data, nil
	}
	if err := sink.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func newSink(client objectStore, bucket string, history bool) *MinioSink {
	return &MinioSink{client: client, bucket: bucket, history: history, now: time.Now}
}

func (s *MinioSink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinioSink) put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, name, err)
	}
	return nil
}

// PutSnapshot uploads data as name and, with history enabled, as
// history/<timestamp>-name.
func (s *MinioSink) PutSnapshot(ctx context.Context, name string, data []byte) error {
	if err := s.put(ctx, name, data); err != nil {
		return err
	}
	if s.history {
		stamp := s.now().UTC().Format("20060102T150405.000Z")
		return s.put(ctx, "history/"+stamp+"-"+name, data)
	}
	return nil
}

// FetchSnapshot downloads the latest snapshot stored under name.
func (s *MinioSink) FetchSnapshot(ctx context.Context, name string) ([]byte, error) {
	if s.fetch == nil {
		return nil, ErrNoSnapshot
	}
	return s.fetch(ctx, name)
}

// RestoreIfMissing downloads name into path when no local snapshot exists.
// It reports whether a file was written.
func RestoreIfMissing(ctx context.Context, sink *MinioSink, name, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := sink.FetchSnapshot(ctx, name)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	return true, nil
}
