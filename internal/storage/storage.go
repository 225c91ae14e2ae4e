package storage

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
)

// Package storage contains the blob persistence abstraction with two
// implementations: local filesystem and S3-compatible object storage (MinIO).
// The backend is selected once at startup by configuration; the rest of the
// pipeline only sees the Backend interface.

// UploadMode tells the caller how bytes should reach the backend.
type UploadMode string

const (
	// ModeLocal means the client must POST the bytes through the service.
	ModeLocal UploadMode = "local"
	// ModePresigned means the client uploads directly to the backend URL.
	ModePresigned UploadMode = "presigned"
)

// UploadParams carries instructions for uploading bytes directly to the
// backend. For presigned uploads StoragePath is the key the client must
// later finalize the record with; the URL expires after a fixed window and
// expired params must be re-requested, not retried.
type UploadParams struct {
	Mode        UploadMode `json:"mode"`
	UploadURL   string     `json:"upload_url"`
	StoragePath string     `json:"storage_path,omitempty"`
	Method      string     `json:"method,omitempty"`
}

// Backend is the capability interface implemented identically by the
// filesystem and object-store variants. Every returned storage path must be
// sufficient, on its own, for the same backend to resolve or delete the blob
// later; no hidden external state.
type Backend interface {
	// Save persists data under a collision-resistant name derived from the
	// original filename's extension and returns the backend locator.
	// Writes are atomic relative to readers; no partial blob is observable.
	Save(ctx context.Context, data []byte, originalFilename string) (string, error)

	// Delete removes the blob. An already-absent blob is a graceful no-op,
	// and legacy absolute-path locators from backend migrations are
	// tolerated without error on both variants.
	Delete(ctx context.Context, storagePath string) error

	// Path resolves a locator to something a consumer can read from
	// directly: an absolute local path, or the backend-specific key.
	Path(storagePath string) string

	// UploadParams returns instructions for uploading the named file
	// directly to this backend.
	UploadParams(ctx context.Context, filename string) (UploadParams, error)
}

// objectKey builds a collision-resistant blob name keeping only the
// original extension.
func objectKey(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}
