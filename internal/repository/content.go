package repository

import (
	"context"

	"contentapi/internal/model"
)

// ContentRepository defines data access for content items using SQL queries
// only. No business logic here — strictly persistence operations.
type ContentRepository interface {
	// Create inserts a new content item record.
	// The caller provides required fields (ID, Version, CreatedAt, ...).
	// Returns the stored item (may include values set by the DB).
	Create(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error)

	// FindByID returns a content item by its ID.
	FindByID(ctx context.Context, id string) (*model.ContentItem, error)

	// Update persists the item's mutable fields (status, metadata).
	Update(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error)

	// Delete removes a content item by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// List returns a paginated list of items and a total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.ContentItem], error)

	// ListByStatus returns every item currently in the given status,
	// oldest first.
	ListByStatus(ctx context.Context, status model.ContentStatus) ([]model.ContentItem, error)

	// MaxVersionForFilename returns the highest version recorded for the
	// given original filename, or 0 when no such item exists.
	MaxVersionForFilename(ctx context.Context, filename string) (int, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
