package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"contentapi/internal/config"
)

// presignExpiry is the validity window for direct-upload URLs. Expired URLs
// are not refreshed; the client must request new params.
const presignExpiry = time.Hour

// minioBackend implements Backend using an S3-compatible object store
// (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple goroutines.
type minioBackend struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new object-store backend backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Backend, error) {
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

	mb := &minioBackend{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return mb, nil
}

var _ Backend = (*minioBackend)(nil)

// Save uploads the blob under a UUID-derived key. Object stores have no
// partial-read window: the key only becomes visible once the put completes.
func (m *minioBackend) Save(ctx context.Context, data []byte, originalFilename string) (string, error) {
	key := objectKey(originalFilename)

	ct := mime.TypeByExtension(filepath.Ext(originalFilename))
	if ct == "" {
		ct = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  ct,
		UserMetadata: map[string]string{"original-filename": originalFilename},
	})
	if err != nil {
		return "", wrapMinioErr("save", key, err)
	}
	return key, nil
}

// Delete removes the object. Keys that look like legacy local filesystem
// paths are removed from disk instead of being sent to the object store.
func (m *minioBackend) Delete(ctx context.Context, storagePath string) error {
	if filepath.IsAbs(storagePath) || strings.HasPrefix(storagePath, ".") {
		if err := os.Remove(storagePath); err != nil && !os.IsNotExist(err) {
			return wrapOSErr("delete", storagePath, err)
		}
		return nil
	}
	if err := m.client.RemoveObject(ctx, m.bucket, storagePath, minio.RemoveObjectOptions{}); err != nil {
		serr := wrapMinioErr("delete", storagePath, err)
		if IsNotFound(serr) {
			return nil
		}
		return serr
	}
	return nil
}

// Path returns the object key; consumers retrieve content through the
// backend (or a presigned URL), not a local path.
func (m *minioBackend) Path(storagePath string) string {
	return storagePath
}

// UploadParams issues a presigned PUT URL so the client can upload directly
// to the object store without routing bytes through the service.
func (m *minioBackend) UploadParams(ctx context.Context, filename string) (UploadParams, error) {
	key := objectKey(filename)

	u, err := m.client.PresignedPutObject(ctx, m.bucket, key, presignExpiry)
	if err != nil {
		return UploadParams{}, wrapMinioErr("presign", key, err)
	}
	return UploadParams{
		Mode:        ModePresigned,
		UploadURL:   u.String(),
		StoragePath: key,
		Method:      "PUT",
	}, nil
}

func wrapMinioErr(op, path string, err error) error {
	kind := KindUnavailable
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		kind = KindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		kind = KindPermissionDenied
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
