package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"contentapi/internal/model"
	"contentapi/internal/repository"
)

// ContentPostgres is a PostgreSQL implementation of repository.ContentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ContentPostgres struct {
	db *sql.DB
}

// NewContentPostgres creates a new ContentPostgres repository.
func NewContentPostgres(db *sql.DB) *ContentPostgres {
	return &ContentPostgres{db: db}
}

var _ repository.ContentRepository = (*ContentPostgres)(nil)

const contentColumns = `id, original_filename, storage_path, status, version, checksum, content_type, size, metadata, created_at`

// Create inserts a new content item row and returns the stored record.
func (r *ContentPostgres) Create(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	const q = `
		INSERT INTO content_items (id, original_filename, storage_path, status, version, checksum, content_type, size, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + contentColumns

	meta, err := marshalMetadata(item.Metadata)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, q,
		item.ID,
		item.OriginalFilename,
		item.StoragePath,
		string(item.Status),
		item.Version,
		item.Checksum,
		item.ContentType,
		item.Size,
		meta,
		item.CreatedAt,
	)
	return scanContentItem(row)
}

// FindByID fetches a single content item by its ID.
func (r *ContentPostgres) FindByID(ctx context.Context, id string) (*model.ContentItem, error) {
	const q = `
		SELECT ` + contentColumns + `
		FROM content_items
		WHERE id = $1
	`
	return scanContentItem(r.db.QueryRowContext(ctx, q, id))
}

// Update persists status and metadata, the only fields the pipeline mutates.
func (r *ContentPostgres) Update(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	const q = `
		UPDATE content_items
		SET status = $2, metadata = $3
		WHERE id = $1
		RETURNING ` + contentColumns

	meta, err := marshalMetadata(item.Metadata)
	if err != nil {
		return nil, err
	}
	return scanContentItem(r.db.QueryRowContext(ctx, q, item.ID, string(item.Status), meta))
}

// Delete removes a content item by ID. It does not return an error if the
// row does not exist.
func (r *ContentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM content_items WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// List returns content items using LIMIT/OFFSET pagination and a total count.
func (r *ContentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ContentItem], error) {
	const qCount = `SELECT COUNT(*) FROM content_items`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + contentColumns + `
		FROM content_items
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectContentItems(rows)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ContentItem]{Items: items, Total: total}, nil
}

// ListByStatus returns all items in the given status, oldest first, so the
// worker processes uploads in arrival order.
func (r *ContentPostgres) ListByStatus(ctx context.Context, status model.ContentStatus) ([]model.ContentItem, error) {
	const q = `
		SELECT ` + contentColumns + `
		FROM content_items
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// MaxVersionForFilename returns the highest version for the filename, 0 when none.
func (r *ContentPostgres) MaxVersionForFilename(ctx context.Context, filename string) (int, error) {
	const q = `SELECT COALESCE(MAX(version), 0) FROM content_items WHERE original_filename = $1`
	var max int
	if err := r.db.QueryRowContext(ctx, q, filename).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentItem(row rowScanner) (*model.ContentItem, error) {
	var (
		item   model.ContentItem
		status string
		meta   []byte
	)
	if err := row.Scan(
		&item.ID,
		&item.OriginalFilename,
		&item.StoragePath,
		&status,
		&item.Version,
		&item.Checksum,
		&item.ContentType,
		&item.Size,
		&meta,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	item.Status = model.ContentStatus(status)
	if err := unmarshalMetadata(meta, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func collectContentItems(rows *sql.Rows) ([]model.ContentItem, error) {
	items := make([]model.ContentItem, 0)
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func marshalMetadata(m model.Metadata) ([]byte, error) {
	if m == nil {
		m = model.Metadata{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalMetadata(raw []byte, item *model.ContentItem) error {
	item.Metadata = model.Metadata{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &item.Metadata); err != nil {
		return fmt.Errorf("unmarshal metadata for %s: %w", item.ID, err)
	}
	return nil
}
