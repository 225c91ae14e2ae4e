package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FSBackend implements Backend on the local filesystem. Blobs are stored
// under a YYYY/MM/DD date prefix with UUID-derived names; the locator kept
// in the database is the path relative to the root directory.
type FSBackend struct {
	root string
}

// NewFS creates a filesystem backend rooted at dir, creating it if needed.
func NewFS(dir string) (*FSBackend, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: "init", Path: dir, Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, wrapOSErr("init", dir, err)
	}
	return &FSBackend{root: abs}, nil
}

var _ Backend = (*FSBackend)(nil)

// Save writes data atomically (tmp file, fsync, rename) so readers never
// observe a partial blob.
func (f *FSBackend) Save(_ context.Context, data []byte, originalFilename string) (string, error) {
	name := objectKey(originalFilename)
	rel := filepath.Join(datePrefix(time.Now().UTC()), name)
	abs := filepath.Join(f.root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", wrapOSErr("save", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", wrapOSErr("save", rel, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", wrapOSErr("save", rel, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", wrapOSErr("save", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return "", wrapOSErr("save", rel, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", wrapOSErr("save", rel, err)
	}
	success = true

	return filepath.ToSlash(rel), nil
}

// Delete removes the blob. Missing files are a no-op; absolute paths from
// older deployments are honored as-is.
func (f *FSBackend) Delete(_ context.Context, storagePath string) error {
	abs := f.Path(storagePath)
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return wrapOSErr("delete", storagePath, err)
	}
	return nil
}

// Path resolves the stored locator to an absolute path. Legacy absolute
// locators pass through unchanged.
func (f *FSBackend) Path(storagePath string) string {
	if filepath.IsAbs(storagePath) {
		return storagePath
	}
	return filepath.Join(f.root, filepath.FromSlash(storagePath))
}

// UploadParams tells the caller to POST the bytes through the service;
// there is no direct-upload path for local disk.
func (f *FSBackend) UploadParams(_ context.Context, _ string) (UploadParams, error) {
	return UploadParams{Mode: ModeLocal, UploadURL: "/api/upload"}, nil
}

func datePrefix(t time.Time) string {
	return filepath.Join(fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()), fmt.Sprintf("%02d", t.Day()))
}

func wrapOSErr(op, path string, err error) error {
	kind := KindUnavailable
	switch {
	case os.IsNotExist(err):
		kind = KindNotFound
	case os.IsPermission(err):
		kind = KindPermissionDenied
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
