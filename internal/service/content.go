package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contentapi/internal/checksum"
	"contentapi/internal/model"
	"contentapi/internal/repository"
	"contentapi/internal/storage"
	"contentapi/internal/version"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrNotFound         = errors.New("content item not found")
	ErrDataRequired     = errors.New("data is required")
	ErrFilenameRequired = errors.New("original filename is required")
	ErrPathRequired     = errors.New("storage path is required")
)

// ContentListResult is the service-level DTO for paginated content items.
type ContentListResult struct {
	Items []model.ContentItem `json:"data"`
	Total int                 `json:"total"`
}

// FinalizeInput describes a completed upload whose bytes are already durable
// in the storage backend (either via Upload or a direct presigned PUT).
type FinalizeInput struct {
	OriginalFilename string
	StoragePath      string
	ContentType      string
	Checksum         string
	Size             int64
	Metadata         model.Metadata
}

// ContentService defines the use cases for handling content items.
type ContentService interface {
	// Upload persists the bytes to the storage backend, then finalizes the
	// record. Storage is rolled back if the record cannot be created.
	Upload(ctx context.Context, data []byte, originalFilename, contentType string, meta model.Metadata) (*model.ContentItem, error)

	// Finalize creates the tracked record for bytes that are already stored:
	// assigns the next per-filename version, an ID and the unprocessed
	// status so the tagging worker picks the item up.
	Finalize(ctx context.Context, in FinalizeInput) (*model.ContentItem, error)

	// Get returns a single content item by its ID.
	Get(ctx context.Context, id string) (*model.ContentItem, error)

	// List returns content items using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ContentListResult, error)

	// Delete removes an item and its backing blob together. A blob that is
	// already gone does not fail the delete; a transiently unavailable
	// backend keeps the record and surfaces the error.
	Delete(ctx context.Context, id string) error

	// UploadParams returns backend instructions for uploading a file
	// directly (presigned URL) or through the service.
	UploadParams(ctx context.Context, filename string) (storage.UploadParams, error)
}

// contentService is a concrete implementation of ContentService.
type contentService struct {
	backend  storage.Backend
	repo     repository.ContentRepository
	versions *version.Resolver
}

// NewContentService constructs a new ContentService.
func NewContentService(backend storage.Backend, repo repository.ContentRepository) ContentService {
	return &contentService{
		backend:  backend,
		repo:     repo,
		versions: version.NewResolver(repo),
	}
}

func (s *contentService) Upload(ctx context.Context, data []byte, originalFilename, contentType string, meta model.Metadata) (*model.ContentItem, error) {
	if len(data) == 0 {
		return nil, ErrDataRequired
	}
	if originalFilename == "" {
		return nil, ErrFilenameRequired
	}

	storagePath, err := s.backend.Save(ctx, data, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("save to storage: %w", err)
	}

	item, err := s.Finalize(ctx, FinalizeInput{
		OriginalFilename: originalFilename,
		StoragePath:      storagePath,
		ContentType:      contentType,
		Checksum:         checksum.Sum(data),
		Size:             int64(len(data)),
		Metadata:         meta,
	})
	if err != nil {
		// Rollback: delete the blob so storage does not leak.
		if delErr := s.backend.Delete(ctx, storagePath); delErr != nil {
			return nil, fmt.Errorf("finalize failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, err
	}
	return item, nil
}

func (s *contentService) Finalize(ctx context.Context, in FinalizeInput) (*model.ContentItem, error) {
	if in.OriginalFilename == "" {
		return nil, ErrFilenameRequired
	}
	if in.StoragePath == "" {
		return nil, ErrPathRequired
	}

	// Version is resolved at the point of record creation so sequential
	// uploads of one filename always count 1..n.
	v, err := s.versions.Next(ctx, in.OriginalFilename)
	if err != nil {
		return nil, err
	}

	item := &model.ContentItem{
		ID:               uuid.New().String(),
		OriginalFilename: in.OriginalFilename,
		StoragePath:      in.StoragePath,
		Status:           model.StatusUnprocessed,
		Version:          v,
		Checksum:         in.Checksum,
		ContentType:      in.ContentType,
		Size:             in.Size,
		Metadata:         in.Metadata.Clone(),
		CreatedAt:        time.Now().UTC(),
	}

	stored, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return stored, nil
}

// Get returns a content item by ID.
func (s *contentService) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// List returns paginated content items without exposing repository types.
func (s *contentService) List(ctx context.Context, limit, offset int) (*ContentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ContentListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes the blob first, then the record; the two go away together.
func (s *contentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	// A blob that is already gone is fine; anything else keeps the record
	// so no storage reference is lost.
	if err := s.backend.Delete(ctx, item.StoragePath); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("delete blob: %w", err)
	}

	return s.repo.Delete(ctx, id)
}

func (s *contentService) UploadParams(ctx context.Context, filename string) (storage.UploadParams, error) {
	if filename == "" {
		return storage.UploadParams{}, ErrFilenameRequired
	}
	return s.backend.UploadParams(ctx, filename)
}
